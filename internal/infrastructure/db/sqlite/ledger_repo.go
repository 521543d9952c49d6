package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/infrastructure/db/sqlite/sqlc/queries"
)

type ledgerRepository struct {
	ledgerState
	db *sql.DB
}

func NewLedgerRepository(config ...interface{}) (domain.LedgerRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open ledger repository: expected *sql.DB but got %T", config[0],
		)
	}

	return &ledgerRepository{
		ledgerState: ledgerState{queries.New(db)},
		db:          db,
	}, nil
}

func (r *ledgerRepository) GetConfig(ctx context.Context) (*domain.LedgerConfig, error) {
	row, err := r.querier.SelectLedgerConfig(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger config: %w", err)
	}

	cfg := domain.LedgerConfig{
		Address:       row.Address,
		AddressPrefix: row.AddressPrefix,
		Auth: domain.AuthRoot{
			Mode:    domain.AuthMode(row.AuthMode),
			Address: row.AuthAddress,
		},
	}
	if err := json.Unmarshal([]byte(row.AllowedDenoms), &cfg.AllowedDenoms); err != nil {
		return nil, fmt.Errorf("invalid stored allowed denoms: %w", err)
	}
	return &cfg, nil
}

func (r *ledgerRepository) InitConfig(ctx context.Context, cfg domain.LedgerConfig) error {
	denoms, err := json.Marshal(cfg.AllowedDenoms)
	if err != nil {
		return fmt.Errorf("failed to serialize allowed denoms: %w", err)
	}
	n, err := r.querier.InsertLedgerConfig(ctx, queries.InsertLedgerConfigParams{
		Address:       cfg.Address,
		AddressPrefix: cfg.AddressPrefix,
		AllowedDenoms: string(denoms),
		AuthMode:      string(cfg.Auth.Mode),
		AuthAddress:   cfg.Auth.Address,
	})
	if err != nil {
		return fmt.Errorf("failed to init ledger config: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("ledger config already initialized")
	}
	return nil
}

// Update reads and writes within a single transaction. Transactions begin IMMEDIATE (see
// OpenDb), so the write lock of the database file is held from the first read on.
func (r *ledgerRepository) Update(
	ctx context.Context,
	operation func(domain.LedgerReader) (*domain.Transition, error),
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		transition, err := operation(ledgerState{querierWithTx})
		if err != nil {
			return err
		}
		return applyTransition(ctx, querierWithTx, *transition)
	}
	return execTx(ctx, r.db, txBody)
}

func (r *ledgerRepository) Close() {
	_ = r.db.Close()
}

// ledgerState reads the ledger tables through a querier bound either to the db or to a tx.
type ledgerState struct {
	querier *queries.Queries
}

func (s ledgerState) GetAddrByHandle(ctx context.Context, handle string) (string, error) {
	addr, err := s.querier.SelectOpenRegistration(ctx, handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get registration of %s: %w", handle, err)
	}
	return addr, nil
}

func (s ledgerState) GetHandleByAddr(ctx context.Context, address string) (string, error) {
	handle, err := s.querier.SelectFundedRegistration(ctx, address)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get registration of %s: %w", address, err)
	}
	return handle, nil
}

func (s ledgerState) GetPendingPayments(
	ctx context.Context, handle string,
) (*domain.PendingPayments, error) {
	rows, err := s.querier.SelectPendingPayments(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending payments of %s: %w", handle, err)
	}
	if len(rows) <= 0 {
		return nil, nil
	}

	balances := make(domain.Coins, 0, len(rows))
	for _, row := range rows {
		amount, err := domain.ParseAmount(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %s: %w", row.Amount, err)
		}
		balances = append(balances, domain.Coin{Denom: row.Denom, Amount: amount})
	}
	return &domain.PendingPayments{Handle: handle, Balances: balances.Sorted()}, nil
}

func applyTransition(
	ctx context.Context, querierWithTx *queries.Queries, transition domain.Transition,
) error {
	if reg := transition.Open; reg != nil {
		if err := querierWithTx.InsertOpenRegistration(
			ctx, queries.InsertOpenRegistrationParams{TgHandle: reg.Handle, ChainAddr: reg.Address},
		); err != nil {
			return fmt.Errorf("failed to insert registration of %s: %w", reg.Handle, err)
		}
	}
	if reg := transition.Funded; reg != nil {
		if err := querierWithTx.InsertFundedRegistration(
			ctx, queries.InsertFundedRegistrationParams{ChainAddr: reg.Address, TgHandle: reg.Handle},
		); err != nil {
			return fmt.Errorf("failed to insert registration of %s: %w", reg.Address, err)
		}
	}
	if pending := transition.Pending; pending != nil {
		if err := querierWithTx.DeletePendingPayments(ctx, pending.Handle); err != nil {
			return fmt.Errorf("failed to reset pending payments of %s: %w", pending.Handle, err)
		}
		for _, coin := range pending.Balances {
			if err := querierWithTx.InsertPendingPayment(ctx, queries.InsertPendingPaymentParams{
				TgHandle: pending.Handle,
				Denom:    coin.Denom,
				Amount:   coin.Amount.String(),
			}); err != nil {
				return fmt.Errorf("failed to insert pending payment: %w", err)
			}
		}
	}
	if handle := transition.ClearPending; len(handle) > 0 {
		if err := querierWithTx.DeletePendingPayments(ctx, handle); err != nil {
			return fmt.Errorf("failed to clear pending payments of %s: %w", handle, err)
		}
	}
	return nil
}
