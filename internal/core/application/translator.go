package application

import (
	"github.com/arkade-os/tgpay/internal/core/domain"
)

// translateUpdate turns a chat update into the outcome of a cursor cycle. Commands that mutate
// the ledger carry the payload operators attest.
func translateUpdate(update domain.ChatUpdate) *CycleResult {
	result := &CycleResult{UpdateId: update.Id}

	msg := update.GetMessage()
	if msg == nil {
		result.Err = &domain.BotError{Kind: domain.BotErrEmptyMessage}
		return result
	}
	result.Message = msg

	cmd, err := domain.ParseCommand(*msg)
	if err != nil {
		result.Err = err
		return result
	}
	result.Command = cmd

	payload, err := commandPayload(cmd, *msg)
	if err != nil {
		result.Err = err
		return result
	}
	result.Payload = payload
	return result
}

func commandPayload(cmd domain.Command, msg domain.ChatMessage) (*domain.Payload, error) {
	switch c := cmd.(type) {
	case domain.ReceiveCommand:
		handle, err := senderHandle(msg, cmd.Prefix())
		if err != nil {
			return nil, err
		}
		return &domain.Payload{
			Register: &domain.RegisterPayload{
				MessageId: msg.Id,
				Handle:    handle,
				Address:   c.Address,
			},
		}, nil
	case domain.SendCommand:
		handle, err := senderHandle(msg, cmd.Prefix())
		if err != nil {
			return nil, err
		}
		return &domain.Payload{
			SendPayment: &domain.SendPaymentPayload{
				MessageId:  msg.Id,
				FromHandle: handle,
				ToHandle:   c.Handle,
				Amount:     c.Amount,
				Denom:      c.Denom,
			},
		}, nil
	default:
		return nil, nil
	}
}

func senderHandle(msg domain.ChatMessage, prefix domain.CommandPrefix) (string, error) {
	if msg.From == nil || len(msg.From.Username) <= 0 {
		return "", &domain.BotError{Kind: domain.BotErrNoUsername, Prefix: string(prefix)}
	}
	return msg.From.Username, nil
}
