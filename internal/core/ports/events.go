package ports

import (
	"context"

	"github.com/arkade-os/tgpay/internal/core/domain"
)

// EventBus carries the ledger audit trail to its subscribers.
type EventBus interface {
	Publish(ctx context.Context, events ...domain.Event) error
	// Subscribe returns a channel closed when ctx is done or the bus is closed.
	Subscribe(ctx context.Context) (<-chan domain.Event, error)
	Close() error
}
