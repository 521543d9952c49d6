package domain

import "context"

// LedgerReader exposes the current registration and escrow state. Absent entries are
// reported as empty values, never as errors.
type LedgerReader interface {
	GetAddrByHandle(ctx context.Context, handle string) (string, error)
	GetHandleByAddr(ctx context.Context, address string) (string, error)
	GetPendingPayments(ctx context.Context, handle string) (*PendingPayments, error)
}

type LedgerRepository interface {
	LedgerReader
	// GetConfig returns nil if the ledger was never initialized.
	GetConfig(ctx context.Context) (*LedgerConfig, error)
	// InitConfig stores the construction parameters. They can only be set once.
	InitConfig(ctx context.Context, cfg LedgerConfig) error
	// Update runs operation against the current state and persists all the changes of the
	// returned transition or none of them. Updates are serialized, also between processes
	// sharing the store, and operation may run again if a concurrent write conflicts.
	// The error of operation is returned as is.
	Update(ctx context.Context, operation func(state LedgerReader) (*Transition, error)) error
	Close()
}
