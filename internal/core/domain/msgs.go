package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ExecuteMsg is one of the operations that can be submitted directly to the ledger.
type ExecuteMsg interface {
	isExecuteMsg()
}

type RegisterReceiveMsg struct {
	Handle  string `json:"tg_handle"`
	Address string `json:"chain_addr"`
}

type RegisterSendMsg struct {
	Handle string `json:"tg_handle"`
}

type SendPaymentMsg struct {
	FromHandle string `json:"from_tg"`
	ToHandle   string `json:"to_tg"`
	Amount     Amount `json:"amount"`
	Denom      string `json:"denom"`
}

func (RegisterReceiveMsg) isExecuteMsg() {}
func (RegisterSendMsg) isExecuteMsg()    {}
func (SendPaymentMsg) isExecuteMsg()     {}

// Msg is a chain instruction emitted by a ledger state transition.
type Msg interface {
	fmt.Stringer
	isMsg()
}

// BankSend moves funds held by the ledger account itself.
type BankSend struct {
	ToAddress string
	Amount    Coins
}

// MsgSend moves funds from an arbitrary account, only valid wrapped in an Exec.
type MsgSend struct {
	FromAddress string
	ToAddress   string
	Amount      Coins
}

// Exec runs the inner transfers on behalf of their senders through the spend allowance they
// granted to Grantee.
type Exec struct {
	Grantee string
	Msgs    []MsgSend
}

func (BankSend) isMsg() {}
func (Exec) isMsg()     {}

func (m BankSend) String() string {
	return fmt.Sprintf("bank send %s to %s", m.Amount, m.ToAddress)
}

func (m MsgSend) String() string {
	return fmt.Sprintf("send %s from %s to %s", m.Amount, m.FromAddress, m.ToAddress)
}

func (m Exec) String() string {
	return fmt.Sprintf("exec as %s: %v", m.Grantee, m.Msgs)
}

// Payload is the decoded content of an envelope: exactly one of its fields is set.
type Payload struct {
	Register    *RegisterPayload    `json:"register,omitempty"`
	SendPayment *SendPaymentPayload `json:"send_payment,omitempty"`
}

type RegisterPayload struct {
	MessageId int64  `json:"message_id"`
	Handle    string `json:"tg_handle"`
	Address   string `json:"chain_addr"`
}

type SendPaymentPayload struct {
	MessageId  int64  `json:"message_id"`
	FromHandle string `json:"from_tg"`
	ToHandle   string `json:"to_tg"`
	Amount     Amount `json:"amount"`
	Denom      string `json:"denom"`
}

// ExecuteMsg returns the ledger operation carried by the payload.
func (p Payload) ExecuteMsg() (ExecuteMsg, error) {
	switch {
	case p.Register != nil && p.SendPayment == nil:
		return RegisterReceiveMsg{
			Handle:  p.Register.Handle,
			Address: p.Register.Address,
		}, nil
	case p.SendPayment != nil && p.Register == nil:
		return SendPaymentMsg{
			FromHandle: p.SendPayment.FromHandle,
			ToHandle:   p.SendPayment.ToHandle,
			Amount:     p.SendPayment.Amount,
			Denom:      p.SendPayment.Denom,
		}, nil
	default:
		return nil, fmt.Errorf("%w: payload must carry exactly one operation", ErrMalformedEnvelope)
	}
}

func (p Payload) Encode() ([]byte, error) {
	if _, err := p.ExecuteMsg(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// DecodePayload strictly decodes an envelope payload. Unknown fields, trailing data and
// payloads carrying zero or more than one operation are rejected.
func DecodePayload(buf []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()

	var payload Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEnvelope, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedEnvelope)
	}
	if _, err := payload.ExecuteMsg(); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Envelope is the attested unit crossing from the operators to the ledger.
type Envelope struct {
	EventId string `json:"event_id"`
	Payload []byte `json:"payload"`
}

// Digest is the message operators sign: sha256(event_id || payload).
func (e Envelope) Digest() [32]byte {
	buf := make([]byte, 0, len(e.EventId)+len(e.Payload))
	buf = append(buf, []byte(e.EventId)...)
	buf = append(buf, e.Payload...)
	return sha256.Sum256(buf)
}
