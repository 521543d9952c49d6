package inmemorycursorstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/arkade-os/tgpay/internal/core/ports"
)

type store struct {
	lock    *sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewCursorStore returns a store only shared among the operators of the same process.
func NewCursorStore() ports.CursorStore {
	return &store{
		lock:    &sync.RWMutex{},
		buckets: make(map[string]map[string][]byte),
	}
}

func (s *store) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.buckets[bucket][key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(value), nil
}

func (s *store) Set(_ context.Context, bucket, key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.set(bucket, key, value)
	return nil
}

func (s *store) CompareAndSwap(
	_ context.Context, bucket, key string, oldValue, newValue []byte,
) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !bytes.Equal(s.buckets[bucket][key], oldValue) {
		return false, nil
	}
	s.set(bucket, key, newValue)
	return true, nil
}

func (s *store) Close() {}

func (s *store) set(bucket, key string, value []byte) {
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	// A nil value would read back as a missing key.
	if value == nil {
		value = []byte{}
	}
	s.buckets[bucket][key] = bytes.Clone(value)
}
