package application

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	lockBucket   = "locks"
	lockKey      = "global_lock"
	offsetBucket = "offsets"
	offsetKey    = "latest_offset"

	// PeekUpdatesLimit is the default page size when listing pending updates.
	PeekUpdatesLimit = 20
)

var lockedValue = []byte("locked")

type cursorService struct {
	store ports.CursorStore
	chat  ports.ChatClient
}

// NewCursorService returns the consumption cursor shared by all the operators reading the
// same chat through store.
func NewCursorService(store ports.CursorStore, chat ports.ChatClient) (CursorService, error) {
	if store == nil {
		return nil, fmt.Errorf("missing cursor store")
	}
	if chat == nil {
		return nil, fmt.Errorf("missing chat client")
	}
	return &cursorService{store, chat}, nil
}

func (s *cursorService) NextCommand(ctx context.Context) (*CycleResult, error) {
	acquired, err := s.acquireLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire cursor lock: %w", err)
	}
	if !acquired {
		log.Warn("cursor lock held by another operator, skipping cycle")
		return nil, nil
	}
	defer s.releaseLock(ctx)

	offset, err := s.GetOffset(ctx)
	if err != nil {
		return nil, err
	}

	updates, err := s.chat.GetUpdates(ctx, offset, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat updates: %w", err)
	}
	if len(updates) <= 0 {
		return nil, nil
	}
	update := updates[0]

	// The update is consumed even if the offset can't be persisted: a failure here may only
	// cause the update to be seen again by the next cycle.
	if err := s.setOffset(ctx, update.Id+1); err != nil {
		log.WithError(err).WithField("update_id", update.Id).Error("failed to persist cursor offset")
	}

	result := translateUpdate(update)
	entry := log.WithField("update_id", update.Id)
	if result.Err != nil {
		entry.WithError(result.Err).Debug("chat update is not a command")
	} else {
		entry.WithField("command", result.Command.Prefix()).Debug("consumed chat command")
	}
	return result, nil
}

func (s *cursorService) PeekUpdates(ctx context.Context, limit int) ([]domain.ChatUpdate, error) {
	if limit <= 0 {
		limit = PeekUpdatesLimit
	}
	offset, err := s.GetOffset(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := s.chat.GetUpdates(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat updates: %w", err)
	}
	return updates, nil
}

func (s *cursorService) Purge(ctx context.Context) (int, error) {
	acquired, err := s.acquireLock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire cursor lock: %w", err)
	}
	if !acquired {
		return 0, fmt.Errorf("cursor lock is held by another operator")
	}
	defer s.releaseLock(ctx)

	offset, err := s.GetOffset(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		updates, err := s.chat.GetUpdates(ctx, offset, PeekUpdatesLimit)
		if err != nil {
			return count, fmt.Errorf("failed to get chat updates: %w", err)
		}
		if len(updates) <= 0 {
			return count, nil
		}

		highest := updates[0].Id
		for _, update := range updates[1:] {
			highest = max(highest, update.Id)
		}
		next := highest + 1
		if err := s.setOffset(ctx, next); err != nil {
			return count, fmt.Errorf("failed to persist cursor offset: %w", err)
		}
		count += len(updates)
		offset = &next
	}
}

// GetOffset returns nil if no offset was ever persisted.
func (s *cursorService) GetOffset(ctx context.Context) (*int64, error) {
	buf, err := s.store.Get(ctx, offsetBucket, offsetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get cursor offset: %w", err)
	}
	if buf == nil {
		return nil, nil
	}
	if len(buf) != 8 {
		return nil, fmt.Errorf("invalid cursor offset: expected 8 bytes, got %d", len(buf))
	}
	offset := int64(binary.LittleEndian.Uint64(buf))
	return &offset, nil
}

func (s *cursorService) setOffset(ctx context.Context, offset int64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(offset))
	return s.store.Set(ctx, offsetBucket, offsetKey, buf)
}

func (s *cursorService) acquireLock(ctx context.Context) (bool, error) {
	return s.store.CompareAndSwap(ctx, lockBucket, lockKey, nil, lockedValue)
}

// releaseLock must run even if the cycle's context was canceled.
func (s *cursorService) releaseLock(ctx context.Context) {
	if err := s.store.Set(
		context.WithoutCancel(ctx), lockBucket, lockKey, []byte{},
	); err != nil {
		log.WithError(err).Error("failed to release cursor lock")
	}
}
