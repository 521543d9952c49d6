package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/arkade-os/tgpay/pkg/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const cycleTimeout = 30 * time.Second

type OperatorConfig struct {
	PollInterval time.Duration
	// GroupLink is advertised to users starting a conversation with the bot.
	GroupLink string
	// SenderAddress submits ledger operations directly when the ledger runs in admin mode.
	SenderAddress string
}

type operatorService struct {
	cfg       OperatorConfig
	cursor    CursorService
	ledger    LedgerService
	signer    ports.EnvelopeSigner
	chat      ports.ChatClient
	scheduler ports.SchedulerService
}

func NewOperatorService(
	cfg OperatorConfig, cursor CursorService, ledger LedgerService,
	signer ports.EnvelopeSigner, chat ports.ChatClient, scheduler ports.SchedulerService,
) (OperatorService, error) {
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cursor == nil || ledger == nil || chat == nil || scheduler == nil {
		return nil, fmt.Errorf("missing operator dependencies")
	}
	if len(ledger.GetManagerService()) > 0 && signer == nil {
		return nil, fmt.Errorf("manager auth mode requires an envelope signer")
	}
	if len(ledger.GetAdmin()) > 0 && len(cfg.SenderAddress) <= 0 {
		return nil, fmt.Errorf("admin auth mode requires a sender address")
	}
	return &operatorService{cfg, cursor, ledger, signer, chat, scheduler}, nil
}

func (s *operatorService) Start() error {
	if err := s.scheduler.ScheduleEvery(s.cfg.PollInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		s.RunCycle(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule operator cycle: %s", err)
	}
	s.scheduler.Start()
	log.WithField("interval", s.cfg.PollInterval).Info("operator started")
	return nil
}

func (s *operatorService) Stop() {
	s.scheduler.Stop()
	log.Info("operator stopped")
}

func (s *operatorService) RunCycle(ctx context.Context) {
	result, err := s.cursor.NextCommand(ctx)
	if err != nil {
		log.WithError(err).Warn("cursor cycle failed")
		return
	}
	if result == nil || result.Message == nil {
		return
	}
	msg := result.Message

	if len(msg.NewChatMembers) > 0 {
		for _, member := range msg.NewChatMembers {
			if member.IsBot {
				continue
			}
			s.reply(ctx, msg.Chat.Id, welcomeMessage(member))
		}
		return
	}

	if result.Err != nil {
		// Plain chatter in a group is not addressed to the bot.
		if domain.IsCommandText(msg.Text) {
			s.reply(ctx, msg.Chat.Id, result.Err.Error())
		}
		return
	}

	s.reply(ctx, msg.Chat.Id, s.handleCommand(ctx, result))
}

func (s *operatorService) handleCommand(ctx context.Context, result *CycleResult) string {
	msg := result.Message
	switch cmd := result.Command.(type) {
	case domain.StartCommand:
		return startMessage(s.cfg.GroupLink)
	case domain.HelpCommand:
		return helpMessage()
	case domain.GroupIdCommand:
		return fmt.Sprintf("Group ID is %d", cmd.GroupId)
	case domain.StatusCommand:
		return s.status(ctx, msg)
	case domain.ReceiveCommand:
		if err := s.submit(ctx, result.Payload); err != nil {
			return failureMessage(err)
		}
		return fmt.Sprintf("okay, you got it, registered %s", cmd.Address)
	case domain.SendCommand:
		if err := s.submit(ctx, result.Payload); err != nil {
			return failureMessage(err)
		}
		return fmt.Sprintf(
			"okay, you got it, sending %s %s to %s", cmd.Amount, cmd.Denom, cmd.Handle,
		)
	default:
		return (&domain.BotError{Kind: domain.BotErrUnknownCommand, Prefix: string(cmd.Prefix())}).Error()
	}
}

func (s *operatorService) status(ctx context.Context, msg *domain.ChatMessage) string {
	if msg.From == nil || len(msg.From.Username) <= 0 {
		return (&domain.BotError{Kind: domain.BotErrNoUsername}).Error()
	}
	addr, err := s.ledger.GetAddrByHandle(ctx, msg.From.Username)
	if err != nil {
		err.Log().WithError(err).Warn("failed to get registration status")
		return "Failed to check your status, please retry later"
	}
	if len(addr) <= 0 {
		return fmt.Sprintf("Hello, %s! Your account is not registered yet.", msg.From.FirstName)
	}
	return fmt.Sprintf(
		"Hello, %s! Your account is registered with address: %s", msg.From.FirstName, addr,
	)
}

// submit runs the payload against the ledger, attested by this operator in manager mode or
// sent by the configured admin account otherwise.
func (s *operatorService) submit(ctx context.Context, payload *domain.Payload) errors.Error {
	if payload == nil {
		return errors.MALFORMED_ENVELOPE.New("missing payload")
	}

	if len(s.ledger.GetManagerService()) <= 0 {
		msg, err := payload.ExecuteMsg()
		if err != nil {
			return errors.MALFORMED_ENVELOPE.Wrap(err)
		}
		_, lerr := s.ledger.Execute(ctx, s.cfg.SenderAddress, msg)
		return lerr
	}

	buf, err := payload.Encode()
	if err != nil {
		return errors.MALFORMED_ENVELOPE.Wrap(err)
	}
	envelope := domain.Envelope{
		EventId: uuid.New().String(),
		Payload: buf,
	}
	signatureData, err := s.signer.Sign(ctx, envelope)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to sign envelope: %w", err))
	}
	if _, err := s.ledger.HandleSignedEnvelope(ctx, envelope, signatureData); err != nil {
		return err
	}
	return nil
}

func (s *operatorService) reply(ctx context.Context, chatId int64, text string) {
	if err := s.chat.SendMessage(ctx, chatId, text); err != nil {
		log.WithError(err).WithField("chat_id", chatId).Warn("failed to send chat reply")
	}
}

func startMessage(groupLink string) string {
	return strings.TrimSpace(fmt.Sprintf(
		"Welcome to the bot!\n\nJoin the group to start receiving and sending WAVS payments.\n\n%s",
		groupLink,
	))
}

func helpMessage() string {
	lines := []string{
		"Available commands:",
		fmt.Sprintf("%s - Start interaction with the bot", domain.CommandStart),
		fmt.Sprintf("%s - Show this help message", domain.CommandHelp),
		fmt.Sprintf(
			"%s - Check if your account has been registered for receiving or sending payments",
			domain.CommandStatus,
		),
		fmt.Sprintf("%s - Get the current group chat ID", domain.CommandGroupId),
		fmt.Sprintf(
			"%s %s - Register to receive WAVS payments at the specified address",
			domain.CommandReceive, domain.CommandReceive.Usage(),
		),
		fmt.Sprintf(
			"%s %s - Send WAVS payments to the specified handle",
			domain.CommandSend, domain.CommandSend.Usage(),
		),
	}
	return strings.Join(lines, "\n")
}

func welcomeMessage(user domain.ChatUser) string {
	return fmt.Sprintf(
		"Welcome, %s!\n\nSend %s to see all available commands.",
		user.FirstName, domain.CommandHelp,
	)
}

func failureMessage(err errors.Error) string {
	switch err.Code() {
	case errors.UNAUTHORIZED.Code:
		return "You are not allowed to do this, make sure both your receive and send registrations are complete"
	case errors.HANDLE_ALREADY_REGISTERED.Code:
		return "This handle is already registered"
	case errors.ADDRESS_ALREADY_REGISTERED.Code:
		return "This address is already registered"
	case errors.TOKEN_NOT_WHITELISTED.Code:
		return "This token is not supported"
	case errors.ZERO_AMOUNT.Code:
		return "Amount must be greater than zero"
	case errors.INVALID_ADDRESS.Code:
		return "Invalid address"
	case errors.AMOUNT_OVERFLOW.Code:
		return "Amount is too large"
	default:
		err.Log().WithError(err).Warn("ledger operation failed")
		return "Something went wrong, please retry later"
	}
}
