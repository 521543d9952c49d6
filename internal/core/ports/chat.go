package ports

import (
	"context"

	"github.com/arkade-os/tgpay/internal/core/domain"
)

type ChatClient interface {
	// GetUpdates returns at most limit updates with id >= offset, from the oldest available
	// one if offset is nil. It must not wait for new updates to arrive.
	GetUpdates(ctx context.Context, offset *int64, limit int) ([]domain.ChatUpdate, error)
	SendMessage(ctx context.Context, chatId int64, text string) error
}
