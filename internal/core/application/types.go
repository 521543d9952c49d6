package application

import (
	"context"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/pkg/errors"
)

type LedgerService interface {
	// Execute runs an operation submitted directly by the chain account sender.
	Execute(
		ctx context.Context, sender string, msg domain.ExecuteMsg,
	) (*domain.Response, errors.Error)
	// HandleSignedEnvelope runs the operation carried by an envelope once the manager
	// service validated it.
	HandleSignedEnvelope(
		ctx context.Context, envelope domain.Envelope, signatureData []byte,
	) (*domain.Response, errors.Error)

	GetAddrByHandle(ctx context.Context, handle string) (string, errors.Error)
	GetHandleByAddr(ctx context.Context, address string) (string, errors.Error)
	GetPendingPayments(ctx context.Context, handle string) (domain.Coins, errors.Error)
	GetAdmin() string
	GetManagerService() string
	GetAllowedDenoms() []string
	GetInfo() LedgerInfo
	Close()
}

type LedgerInfo struct {
	Address       string
	AddressPrefix string
	AuthMode      string
	AuthAddress   string
	AllowedDenoms []string
}

type CursorService interface {
	// NextCommand processes at most one chat update under the global lock. It returns nil if
	// the lock is held elsewhere or no update is available.
	NextCommand(ctx context.Context) (*CycleResult, error)
	// PeekUpdates lists up to limit pending updates without moving the offset.
	PeekUpdates(ctx context.Context, limit int) ([]domain.ChatUpdate, error)
	// Purge moves the offset past every pending update and returns how many were skipped.
	Purge(ctx context.Context) (int, error)
	GetOffset(ctx context.Context) (*int64, error)
}

// CycleResult is the outcome of one cursor cycle that consumed an update.
type CycleResult struct {
	UpdateId int64
	Message  *domain.ChatMessage
	// Command is nil if the message could not be translated, Err tells why.
	Command domain.Command
	// Payload is only set for commands that mutate the ledger.
	Payload *domain.Payload
	Err     error
}

type OperatorService interface {
	Start() error
	Stop()
	// RunCycle runs a single cursor cycle and executes its outcome.
	RunCycle(ctx context.Context)
}

type ReporterService interface {
	Start(ctx context.Context) error
	Stop()
}
