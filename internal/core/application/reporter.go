package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type ReporterConfig struct {
	// GroupId is the chat notified of ledger activity. Zero disables chat notifications.
	GroupId int64
	// LedgerAddress identifies payments landing in escrow.
	LedgerAddress string
}

type reporterService struct {
	cfg    ReporterConfig
	events ports.EventBus
	chat   ports.ChatClient
	alerts ports.Alerts

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReporterService(
	cfg ReporterConfig, events ports.EventBus, chat ports.ChatClient, alerts ports.Alerts,
) (ReporterService, error) {
	if events == nil {
		return nil, fmt.Errorf("missing event bus")
	}
	if cfg.GroupId != 0 && chat == nil {
		return nil, fmt.Errorf("missing chat client")
	}
	return &reporterService{cfg: cfg, events: events, chat: chat, alerts: alerts}, nil
}

func (s *reporterService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	ch, err := s.events.Subscribe(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to ledger events: %s", err)
	}
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for event := range ch {
			s.report(ctx, event)
		}
	}()
	log.Info("reporter started")
	return nil
}

func (s *reporterService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Info("reporter stopped")
}

func (s *reporterService) report(ctx context.Context, event domain.Event) {
	var text string
	var topic ports.Topic
	var alert any

	switch e := event.(type) {
	case domain.RegistrationEvent:
		text = fmt.Sprintf(
			"New user registered!\nTelegram: @%s\nAddress: %s", e.Handle, e.Address,
		)
		topic = ports.UserRegistered
		alert = ports.UserRegisteredAlert{Handle: e.Handle, Address: e.Address}
	case domain.SendPaymentEvent:
		text = fmt.Sprintf(
			"Payment sent!\nFrom: @%s (%s)\nTo: @%s (%s)\nAmount: %s %s",
			e.FromHandle, e.FromAddress, e.ToHandle, e.ToAddress, e.Amount, e.Denom,
		)
		topic = ports.PaymentSent
		alert = ports.PaymentSentAlert{
			FromHandle:  e.FromHandle,
			FromAddress: e.FromAddress,
			ToHandle:    e.ToHandle,
			ToAddress:   e.ToAddress,
			Amount:      e.Amount.String(),
			Denom:       e.Denom,
			Escrowed:    len(s.cfg.LedgerAddress) > 0 && e.ToAddress == s.cfg.LedgerAddress,
		}
	default:
		log.Debugf("ignoring ledger event of type %s", event.GetType())
		return
	}

	if s.cfg.GroupId != 0 {
		if err := s.chat.SendMessage(ctx, s.cfg.GroupId, text); err != nil {
			log.WithError(err).WithField("event", event.GetType()).Warn("failed to report ledger event")
		}
	}

	if s.alerts != nil {
		alertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.alerts.Publish(alertCtx, topic, alert); err != nil {
			log.WithError(err).WithField("topic", topic).Warn("failed to publish alert")
		}
	}
}
