package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	ledgerStoreDir = "ledger"
	configKey      = "config"
)

type configDTO struct {
	Address       string
	AddressPrefix string
	AllowedDenoms []string
	AuthMode      string
	AuthAddress   string
}

type openRegistration struct {
	Handle  string
	Address string
}

type fundedRegistration struct {
	Address string
	Handle  string
}

type coinDTO struct {
	Denom  string
	Amount string
}

type pendingPaymentsDTO struct {
	Handle   string
	Balances []coinDTO
}

type ledgerRepository struct {
	store *badgerhold.Store
}

func NewLedgerRepository(config ...interface{}) (domain.LedgerRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, ledgerStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %s", err)
	}

	return &ledgerRepository{store}, nil
}

func (r *ledgerRepository) GetAddrByHandle(ctx context.Context, handle string) (string, error) {
	return ledgerState{r.store, nil}.GetAddrByHandle(ctx, handle)
}

func (r *ledgerRepository) GetHandleByAddr(ctx context.Context, address string) (string, error) {
	return ledgerState{r.store, nil}.GetHandleByAddr(ctx, address)
}

func (r *ledgerRepository) GetPendingPayments(
	ctx context.Context, handle string,
) (*domain.PendingPayments, error) {
	return ledgerState{r.store, nil}.GetPendingPayments(ctx, handle)
}

func (r *ledgerRepository) GetConfig(ctx context.Context) (*domain.LedgerConfig, error) {
	var dto configDTO
	if err := r.store.Get(configKey, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger config: %w", err)
	}
	return &domain.LedgerConfig{
		Address:       dto.Address,
		AddressPrefix: dto.AddressPrefix,
		AllowedDenoms: dto.AllowedDenoms,
		Auth: domain.AuthRoot{
			Mode:    domain.AuthMode(dto.AuthMode),
			Address: dto.AuthAddress,
		},
	}, nil
}

func (r *ledgerRepository) InitConfig(ctx context.Context, cfg domain.LedgerConfig) error {
	dto := configDTO{
		Address:       cfg.Address,
		AddressPrefix: cfg.AddressPrefix,
		AllowedDenoms: cfg.AllowedDenoms,
		AuthMode:      string(cfg.Auth.Mode),
		AuthAddress:   cfg.Auth.Address,
	}
	if err := r.store.Insert(configKey, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("ledger config already initialized")
		}
		return fmt.Errorf("failed to init ledger config: %w", err)
	}
	return nil
}

// Update reads and writes within a single badger transaction. Badger detects that a key read
// by the transaction was committed by another one meanwhile, the update is then run again.
func (r *ledgerRepository) Update(
	ctx context.Context,
	operation func(domain.LedgerReader) (*domain.Transition, error),
) error {
	var opErr error
	var err error
	for attempts := 1; attempts <= maxRetries; attempts++ {
		err = r.store.Badger().Update(func(tx *badger.Txn) error {
			transition, err := operation(ledgerState{r.store, tx})
			if err != nil {
				opErr = err
				return err
			}
			return r.applyTx(tx, *transition)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if opErr != nil {
		return opErr
	}
	if err != nil {
		return fmt.Errorf("failed to apply ledger transition: %w", err)
	}
	return nil
}

func (r *ledgerRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *ledgerRepository) applyTx(tx *badger.Txn, transition domain.Transition) error {
	if reg := transition.Open; reg != nil {
		if err := r.store.TxInsert(tx, reg.Handle, &openRegistration{
			Handle: reg.Handle, Address: reg.Address,
		}); err != nil {
			return fmt.Errorf("failed to insert registration of %s: %w", reg.Handle, err)
		}
	}
	if reg := transition.Funded; reg != nil {
		if err := r.store.TxInsert(tx, reg.Address, &fundedRegistration{
			Address: reg.Address, Handle: reg.Handle,
		}); err != nil {
			return fmt.Errorf("failed to insert registration of %s: %w", reg.Address, err)
		}
	}
	if pending := transition.Pending; pending != nil {
		dto := newPendingPaymentsDTO(*pending)
		if err := r.store.TxUpsert(tx, pending.Handle, &dto); err != nil {
			return fmt.Errorf("failed to upsert pending payments of %s: %w", pending.Handle, err)
		}
	}
	if handle := transition.ClearPending; len(handle) > 0 {
		if err := r.store.TxDelete(tx, handle, &pendingPaymentsDTO{}); err != nil &&
			!errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("failed to clear pending payments of %s: %w", handle, err)
		}
	}
	return nil
}

// ledgerState reads through tx if set, or through read-only transactions of its own.
type ledgerState struct {
	store *badgerhold.Store
	tx    *badger.Txn
}

func (s ledgerState) get(key, result interface{}) error {
	if s.tx != nil {
		return s.store.TxGet(s.tx, key, result)
	}
	return s.store.Get(key, result)
}

func (s ledgerState) GetAddrByHandle(_ context.Context, handle string) (string, error) {
	var reg openRegistration
	if err := s.get(handle, &reg); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get registration of %s: %w", handle, err)
	}
	return reg.Address, nil
}

func (s ledgerState) GetHandleByAddr(_ context.Context, address string) (string, error) {
	var reg fundedRegistration
	if err := s.get(address, &reg); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get registration of %s: %w", address, err)
	}
	return reg.Handle, nil
}

func (s ledgerState) GetPendingPayments(
	_ context.Context, handle string,
) (*domain.PendingPayments, error) {
	var dto pendingPaymentsDTO
	if err := s.get(handle, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending payments of %s: %w", handle, err)
	}
	return dto.toDomain()
}

func newPendingPaymentsDTO(pending domain.PendingPayments) pendingPaymentsDTO {
	balances := make([]coinDTO, 0, len(pending.Balances))
	for _, coin := range pending.Balances {
		balances = append(balances, coinDTO{Denom: coin.Denom, Amount: coin.Amount.String()})
	}
	return pendingPaymentsDTO{Handle: pending.Handle, Balances: balances}
}

func (d pendingPaymentsDTO) toDomain() (*domain.PendingPayments, error) {
	balances := make(domain.Coins, 0, len(d.Balances))
	for _, coin := range d.Balances {
		amount, err := domain.ParseAmount(coin.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %s: %w", coin.Amount, err)
		}
		balances = append(balances, domain.Coin{Denom: coin.Denom, Amount: amount})
	}
	return &domain.PendingPayments{Handle: d.Handle, Balances: balances.Sorted()}, nil
}
