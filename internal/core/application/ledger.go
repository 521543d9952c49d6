package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/arkade-os/tgpay/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrLedgerNotInitialized = stderrors.New("ledger not initialized")

type ledgerService struct {
	repo    domain.LedgerRepository
	manager ports.ManagerService
	events  ports.EventBus
	ledger  *domain.Ledger

	// Operations of this process are applied one at a time, the repository serializes them
	// with the other processes sharing the store.
	lock sync.Mutex
}

// NewLedgerService loads the ledger construction parameters from the repository, or stores cfg
// if the ledger was never initialized. Stored parameters are immutable and take precedence.
func NewLedgerService(
	ctx context.Context, repo domain.LedgerRepository, manager ports.ManagerService,
	events ports.EventBus, cfg domain.LedgerConfig,
) (LedgerService, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing ledger repository")
	}

	stored, err := repo.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger config: %s", err)
	}
	if stored == nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid ledger config: %s", err)
		}
		if err := repo.InitConfig(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to init ledger config: %s", err)
		}
		log.WithFields(log.Fields{
			"address":        cfg.Address,
			"auth_mode":      cfg.Auth.Mode,
			"allowed_denoms": cfg.AllowedDenoms,
		}).Info("initialized ledger")
		stored = &cfg
	} else if !sameLedgerConfig(*stored, cfg) {
		log.Warn("ledger already initialized with different parameters, ignoring the new ones")
	}

	return newLedgerService(*stored, repo, manager, events)
}

// OpenLedgerService serves a ledger that was already initialized, it never writes the
// construction parameters.
func OpenLedgerService(
	ctx context.Context, repo domain.LedgerRepository, manager ports.ManagerService,
	events ports.EventBus,
) (LedgerService, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing ledger repository")
	}

	stored, err := repo.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger config: %s", err)
	}
	if stored == nil {
		return nil, ErrLedgerNotInitialized
	}
	return newLedgerService(*stored, repo, manager, events)
}

func newLedgerService(
	cfg domain.LedgerConfig, repo domain.LedgerRepository, manager ports.ManagerService,
	events ports.EventBus,
) (LedgerService, error) {
	if cfg.Auth.Mode == domain.AuthModeManager && manager == nil {
		return nil, fmt.Errorf("manager auth mode requires a manager service")
	}

	ledger, err := domain.NewLedger(cfg, repo)
	if err != nil {
		return nil, err
	}

	return &ledgerService{
		repo:    repo,
		manager: manager,
		events:  events,
		ledger:  ledger,
	}, nil
}

func (s *ledgerService) Execute(
	ctx context.Context, sender string, msg domain.ExecuteMsg,
) (*domain.Response, errors.Error) {
	return s.execute(ctx, domain.CallerFromAddress(sender), msg)
}

func (s *ledgerService) HandleSignedEnvelope(
	ctx context.Context, envelope domain.Envelope, signatureData []byte,
) (*domain.Response, errors.Error) {
	cfg := s.ledger.Config()
	if cfg.Auth.Mode != domain.AuthModeManager {
		return nil, errors.WRONG_AUTH_MODE.New("envelopes are only accepted in manager mode").
			WithMetadata(errors.AuthModeMetadata{Mode: string(cfg.Auth.Mode)})
	}

	if err := s.manager.Validate(ctx, envelope, signatureData); err != nil {
		return nil, errors.INVALID_SIGNATURE.Wrap(err).
			WithMetadata(errors.EnvelopeMetadata{Payload: string(envelope.Payload)})
	}

	payload, err := domain.DecodePayload(envelope.Payload)
	if err != nil {
		return nil, errors.MALFORMED_ENVELOPE.Wrap(err).
			WithMetadata(errors.EnvelopeMetadata{Payload: string(envelope.Payload)})
	}
	msg, err := payload.ExecuteMsg()
	if err != nil {
		return nil, errors.MALFORMED_ENVELOPE.Wrap(err).
			WithMetadata(errors.EnvelopeMetadata{Payload: string(envelope.Payload)})
	}

	log.WithField("event_id", envelope.EventId).Debug("accepted signed envelope")
	return s.execute(ctx, domain.VerifiedCaller(), msg)
}

func (s *ledgerService) GetAddrByHandle(
	ctx context.Context, handle string,
) (string, errors.Error) {
	addr, err := s.repo.GetAddrByHandle(ctx, handle)
	if err != nil {
		return "", errors.INTERNAL_ERROR.Wrap(err)
	}
	return addr, nil
}

func (s *ledgerService) GetHandleByAddr(
	ctx context.Context, address string,
) (string, errors.Error) {
	handle, err := s.repo.GetHandleByAddr(ctx, address)
	if err != nil {
		return "", errors.INTERNAL_ERROR.Wrap(err)
	}
	return handle, nil
}

func (s *ledgerService) GetPendingPayments(
	ctx context.Context, handle string,
) (domain.Coins, errors.Error) {
	pending, err := s.repo.GetPendingPayments(ctx, handle)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if pending == nil {
		return domain.Coins{}, nil
	}
	return pending.Balances, nil
}

func (s *ledgerService) GetAdmin() string {
	cfg := s.ledger.Config()
	if cfg.Auth.Mode != domain.AuthModeAdmin {
		return ""
	}
	return cfg.Auth.Address
}

func (s *ledgerService) GetManagerService() string {
	cfg := s.ledger.Config()
	if cfg.Auth.Mode != domain.AuthModeManager {
		return ""
	}
	return cfg.Auth.Address
}

func (s *ledgerService) GetAllowedDenoms() []string {
	return slices.Clone(s.ledger.Config().AllowedDenoms)
}

func (s *ledgerService) GetInfo() LedgerInfo {
	cfg := s.ledger.Config()
	return LedgerInfo{
		Address:       cfg.Address,
		AddressPrefix: cfg.AddressPrefix,
		AuthMode:      string(cfg.Auth.Mode),
		AuthAddress:   cfg.Auth.Address,
		AllowedDenoms: slices.Clone(cfg.AllowedDenoms),
	}
}

func (s *ledgerService) Close() {
	s.repo.Close()
}

func (s *ledgerService) execute(
	ctx context.Context, caller domain.Caller, msg domain.ExecuteMsg,
) (*domain.Response, errors.Error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var transition *domain.Transition
	var opErr error
	if err := s.repo.Update(ctx, func(
		state domain.LedgerReader,
	) (*domain.Transition, error) {
		transition, opErr = s.ledger.WithState(state).Execute(ctx, caller, msg)
		return transition, opErr
	}); err != nil {
		if opErr != nil {
			return nil, ledgerError(opErr, caller, msg, s.ledger.Config())
		}
		return nil, errors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to apply transition: %w", err))
	}

	fields := log.Fields{}
	for _, attr := range transition.Response.Attributes {
		fields[attr.Key] = attr.Value
	}
	log.WithFields(fields).Info("ledger operation applied")

	if s.events != nil && len(transition.Response.Events) > 0 {
		if err := s.events.Publish(ctx, transition.Response.Events...); err != nil {
			log.WithError(err).Warn("failed to publish ledger events")
		}
	}

	return &transition.Response, nil
}

func ledgerError(
	err error, caller domain.Caller, msg domain.ExecuteMsg, cfg domain.LedgerConfig,
) errors.Error {
	var registration errors.RegistrationMetadata
	var payment errors.PaymentMetadata
	switch m := msg.(type) {
	case domain.RegisterReceiveMsg:
		registration = errors.RegistrationMetadata{Handle: m.Handle, Address: m.Address}
	case domain.RegisterSendMsg:
		registration = errors.RegistrationMetadata{Handle: m.Handle, Address: caller.Address()}
	case domain.SendPaymentMsg:
		payment = errors.PaymentMetadata{
			FromHandle: m.FromHandle,
			ToHandle:   m.ToHandle,
			Amount:     m.Amount.String(),
			Denom:      m.Denom,
		}
	}

	switch {
	case stderrors.Is(err, domain.ErrUnauthorized):
		return errors.UNAUTHORIZED.Wrap(err).
			WithMetadata(errors.AddressMetadata{Address: caller.Address()})
	case stderrors.Is(err, domain.ErrHandleAlreadyRegistered):
		return errors.HANDLE_ALREADY_REGISTERED.Wrap(err).WithMetadata(registration)
	case stderrors.Is(err, domain.ErrAddressAlreadyRegistered):
		return errors.ADDRESS_ALREADY_REGISTERED.Wrap(err).WithMetadata(registration)
	case stderrors.Is(err, domain.ErrInvalidAddress):
		return errors.INVALID_ADDRESS.Wrap(err).
			WithMetadata(errors.AddressMetadata{Address: registration.Address})
	case stderrors.Is(err, domain.ErrInvalidHandle):
		return errors.INVALID_HANDLE.Wrap(err).
			WithMetadata(errors.HandleMetadata{Handle: registration.Handle})
	case stderrors.Is(err, domain.ErrTokenNotWhitelisted):
		return errors.TOKEN_NOT_WHITELISTED.Wrap(err).WithMetadata(errors.DenomMetadata{
			Denom:         payment.Denom,
			AllowedDenoms: cfg.AllowedDenoms,
		})
	case stderrors.Is(err, domain.ErrZeroAmount):
		return errors.ZERO_AMOUNT.Wrap(err).WithMetadata(payment)
	case stderrors.Is(err, domain.ErrAmountOverflow):
		return errors.AMOUNT_OVERFLOW.Wrap(err).WithMetadata(payment)
	default:
		return errors.INTERNAL_ERROR.Wrap(err)
	}
}

func sameLedgerConfig(a, b domain.LedgerConfig) bool {
	return a.Address == b.Address &&
		a.AddressPrefix == b.AddressPrefix &&
		a.Auth == b.Auth &&
		slices.Equal(a.AllowedDenoms, b.AllowedDenoms)
}
