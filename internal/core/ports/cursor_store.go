package ports

import "context"

// CursorStore is the shared key-value store backing the consumption cursor. Values are
// addressed by bucket and key.
type CursorStore interface {
	// Get returns nil if the key does not exist.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Set(ctx context.Context, bucket, key string, value []byte) error
	// CompareAndSwap writes newValue only if the current value equals oldValue and reports
	// whether the swap happened. A missing key compares equal to an empty oldValue.
	CompareAndSwap(ctx context.Context, bucket, key string, oldValue, newValue []byte) (bool, error)
	Close()
}
