package application

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func newTestCursor(t *testing.T, updates ...domain.ChatUpdate) (
	CursorService, *memCursorStore, *fakeChat,
) {
	t.Helper()
	store := newMemCursorStore()
	chat := &fakeChat{updates: updates}
	cursor, err := NewCursorService(store, chat)
	require.NoError(t, err)
	return cursor, store, chat
}

func TestCursorNextCommand(t *testing.T) {
	ctx := context.Background()
	alice := testAddress(t, 10)

	t.Run("consumes updates in order", func(t *testing.T) {
		cursor, store, _ := newTestCursor(t,
			domain.ChatUpdate{Id: 5, Message: textMessage(1, "alice", "/receive "+alice)},
			domain.ChatUpdate{Id: 6, Message: textMessage(2, "alice", "hello there")},
			domain.ChatUpdate{Id: 9, EditedMessage: textMessage(3, "alice", "/send @bob 10 ulayer")},
		)

		offset, err := cursor.GetOffset(ctx)
		require.NoError(t, err)
		require.Nil(t, offset)

		res, err := cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Equal(t, int64(5), res.UpdateId)
		require.NoError(t, res.Err)
		require.Equal(t, domain.ReceiveCommand{Address: alice}, res.Command)
		require.NotNil(t, res.Payload)
		require.False(t, store.locked())

		offset, err = cursor.GetOffset(ctx)
		require.NoError(t, err)
		require.NotNil(t, offset)
		require.Equal(t, int64(6), *offset)

		buf, err := store.Get(ctx, offsetBucket, offsetKey)
		require.NoError(t, err)
		require.Equal(t, uint64(6), binary.LittleEndian.Uint64(buf))

		res, err = cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Equal(t, int64(6), res.UpdateId)
		require.Error(t, res.Err)
		require.Nil(t, res.Command)

		res, err = cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Equal(t, int64(9), res.UpdateId)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Payload.SendPayment)
		require.Equal(t, "bob", res.Payload.SendPayment.ToHandle)

		res, err = cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.Nil(t, res)

		offset, err = cursor.GetOffset(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(10), *offset)
		require.False(t, store.locked())
	})

	t.Run("lock held elsewhere", func(t *testing.T) {
		cursor, store, chat := newTestCursor(t,
			domain.ChatUpdate{Id: 1, Message: textMessage(1, "alice", "/help")},
		)
		ok, err := store.CompareAndSwap(ctx, lockBucket, lockKey, nil, lockedValue)
		require.NoError(t, err)
		require.True(t, ok)

		res, err := cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.Nil(t, res)
		require.Zero(t, chat.getCalls)
		// The lock is only released by its holder.
		require.True(t, store.locked())
	})

	t.Run("released lock can be reacquired", func(t *testing.T) {
		cursor, store, _ := newTestCursor(t,
			domain.ChatUpdate{Id: 1, Message: textMessage(1, "alice", "/help")},
		)
		require.NoError(t, store.Set(ctx, lockBucket, lockKey, []byte{}))

		res, err := cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Equal(t, domain.HelpCommand{}, res.Command)
	})

	t.Run("chat failure releases the lock", func(t *testing.T) {
		cursor, store, chat := newTestCursor(t)
		chat.getErr = fmt.Errorf("timeout")

		res, err := cursor.NextCommand(ctx)
		require.Error(t, err)
		require.Nil(t, res)
		require.False(t, store.locked())

		offset, err := cursor.GetOffset(ctx)
		require.NoError(t, err)
		require.Nil(t, offset)
	})

	t.Run("offset failure still yields the update", func(t *testing.T) {
		cursor, store, _ := newTestCursor(t,
			domain.ChatUpdate{Id: 1, Message: textMessage(1, "alice", "/start")},
		)
		store.setErr = fmt.Errorf("read only")

		res, err := cursor.NextCommand(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Equal(t, domain.StartCommand{}, res.Command)
		require.False(t, store.locked())
	})

	t.Run("corrupted offset", func(t *testing.T) {
		cursor, store, _ := newTestCursor(t)
		require.NoError(t, store.Set(ctx, offsetBucket, offsetKey, []byte{1, 2, 3}))

		res, err := cursor.NextCommand(ctx)
		require.Error(t, err)
		require.Nil(t, res)
		require.False(t, store.locked())
	})
}

func TestCursorPeekAndPurge(t *testing.T) {
	ctx := context.Background()
	updates := make([]domain.ChatUpdate, 0, 45)
	for i := range 45 {
		updates = append(updates, domain.ChatUpdate{
			Id:      int64(100 + i),
			Message: textMessage(int64(i), "alice", "hi"),
		})
	}
	cursor, store, _ := newTestCursor(t, updates...)

	peeked, err := cursor.PeekUpdates(ctx, 0)
	require.NoError(t, err)
	require.Len(t, peeked, PeekUpdatesLimit)
	require.Equal(t, int64(100), peeked[0].Id)

	peeked, err = cursor.PeekUpdates(ctx, 3)
	require.NoError(t, err)
	require.Len(t, peeked, 3)

	offset, err := cursor.GetOffset(ctx)
	require.NoError(t, err)
	require.Nil(t, offset)

	count, err := cursor.Purge(ctx)
	require.NoError(t, err)
	require.Equal(t, 45, count)
	require.False(t, store.locked())

	offset, err = cursor.GetOffset(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(145), *offset)

	peeked, err = cursor.PeekUpdates(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, peeked)

	t.Run("lock held elsewhere", func(t *testing.T) {
		cursor, store, _ := newTestCursor(t, updates...)
		ok, err := store.CompareAndSwap(ctx, lockBucket, lockKey, nil, lockedValue)
		require.NoError(t, err)
		require.True(t, ok)

		count, err := cursor.Purge(ctx)
		require.Error(t, err)
		require.Zero(t, count)
	})
}
