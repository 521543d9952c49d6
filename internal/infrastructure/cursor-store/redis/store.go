package rediscursorstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cursor"

type store struct {
	rdb          *redis.Client
	numOfRetries int
	retryDelay   time.Duration
}

func NewCursorStore(rdb *redis.Client, numOfRetries int) ports.CursorStore {
	if numOfRetries <= 0 {
		numOfRetries = 1
	}
	return &store{
		rdb:          rdb,
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}
}

func (s *store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, redisKey(bucket, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (s *store) Set(ctx context.Context, bucket, key string, value []byte) error {
	if err := s.rdb.Set(ctx, redisKey(bucket, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *store) CompareAndSwap(
	ctx context.Context, bucket, key string, oldValue, newValue []byte,
) (bool, error) {
	k := redisKey(bucket, key)

	var err error
	for range s.numOfRetries {
		swapped := false
		if err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, k).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if !bytes.Equal(current, oldValue) {
				return nil
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, k, newValue, 0)
				return nil
			}); err != nil {
				return err
			}
			swapped = true
			return nil
		}, k); err == nil {
			return swapped, nil
		}
		// Only a concurrent write to the watched key is worth retrying.
		if !errors.Is(err, redis.TxFailedErr) {
			return false, err
		}
		time.Sleep(s.retryDelay)
	}
	return false, fmt.Errorf(
		"failed to compare and swap %s/%s after max number of retries: %v", bucket, key, err,
	)
}

func (s *store) Close() {
	_ = s.rdb.Close()
}

func redisKey(bucket, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, bucket, key)
}
