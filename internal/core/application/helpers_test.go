package application

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testHrp = "layer"

func testAddress(t *testing.T, seed byte) string {
	t.Helper()
	data, err := bech32.ConvertBits(bytes.Repeat([]byte{seed}, 20), 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.Encode(testHrp, data)
	require.NoError(t, err)
	return addr
}

type memLedgerRepo struct {
	lock     sync.RWMutex
	cfg      *domain.LedgerConfig
	open     map[string]string
	funded   map[string]string
	pending  map[string]domain.PendingPayments
	applyErr error
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{
		open:    make(map[string]string),
		funded:  make(map[string]string),
		pending: make(map[string]domain.PendingPayments),
	}
}

func (r *memLedgerRepo) GetAddrByHandle(ctx context.Context, handle string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return memLedgerState{r}.GetAddrByHandle(ctx, handle)
}

func (r *memLedgerRepo) GetHandleByAddr(ctx context.Context, address string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return memLedgerState{r}.GetHandleByAddr(ctx, address)
}

func (r *memLedgerRepo) GetPendingPayments(
	ctx context.Context, handle string,
) (*domain.PendingPayments, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return memLedgerState{r}.GetPendingPayments(ctx, handle)
}

func (r *memLedgerRepo) GetConfig(_ context.Context) (*domain.LedgerConfig, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.cfg == nil {
		return nil, nil
	}
	cfg := *r.cfg
	return &cfg, nil
}

func (r *memLedgerRepo) InitConfig(_ context.Context, cfg domain.LedgerConfig) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.cfg != nil {
		return fmt.Errorf("already initialized")
	}
	r.cfg = &cfg
	return nil
}

func (r *memLedgerRepo) Update(
	_ context.Context,
	operation func(domain.LedgerReader) (*domain.Transition, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	tr, err := operation(memLedgerState{r})
	if err != nil {
		return err
	}
	if r.applyErr != nil {
		return r.applyErr
	}
	if tr.Open != nil {
		r.open[tr.Open.Handle] = tr.Open.Address
	}
	if tr.Funded != nil {
		r.funded[tr.Funded.Address] = tr.Funded.Handle
	}
	if tr.Pending != nil {
		r.pending[tr.Pending.Handle] = *tr.Pending
	}
	if len(tr.ClearPending) > 0 {
		delete(r.pending, tr.ClearPending)
	}
	return nil
}

func (r *memLedgerRepo) Close() {}

// memLedgerState reads the maps of a repo whose lock is already held.
type memLedgerState struct {
	r *memLedgerRepo
}

func (s memLedgerState) GetAddrByHandle(_ context.Context, handle string) (string, error) {
	return s.r.open[handle], nil
}

func (s memLedgerState) GetHandleByAddr(_ context.Context, address string) (string, error) {
	return s.r.funded[address], nil
}

func (s memLedgerState) GetPendingPayments(
	_ context.Context, handle string,
) (*domain.PendingPayments, error) {
	p, ok := s.r.pending[handle]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type memCursorStore struct {
	lock   sync.Mutex
	data   map[string][]byte
	setErr error
}

func newMemCursorStore() *memCursorStore {
	return &memCursorStore{data: make(map[string][]byte)}
}

func (s *memCursorStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.data[bucket+":"+key], nil
}

func (s *memCursorStore) Set(_ context.Context, bucket, key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.setErr != nil && bucket == offsetBucket {
		return s.setErr
	}
	s.data[bucket+":"+key] = value
	return nil
}

func (s *memCursorStore) CompareAndSwap(
	_ context.Context, bucket, key string, oldValue, newValue []byte,
) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !bytes.Equal(s.data[bucket+":"+key], oldValue) {
		return false, nil
	}
	s.data[bucket+":"+key] = newValue
	return true, nil
}

func (s *memCursorStore) Close() {}

func (s *memCursorStore) locked() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return bytes.Equal(s.data[lockBucket+":"+lockKey], lockedValue)
}

type sentMessage struct {
	chatId int64
	text   string
}

type fakeChat struct {
	lock     sync.Mutex
	updates  []domain.ChatUpdate
	sent     []sentMessage
	getErr   error
	getCalls int
}

func (c *fakeChat) GetUpdates(
	_ context.Context, offset *int64, limit int,
) ([]domain.ChatUpdate, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.getCalls++
	if c.getErr != nil {
		return nil, c.getErr
	}
	updates := make([]domain.ChatUpdate, 0, limit)
	for _, u := range c.updates {
		if offset != nil && u.Id < *offset {
			continue
		}
		if len(updates) >= limit {
			break
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func (c *fakeChat) SendMessage(_ context.Context, chatId int64, text string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sent = append(c.sent, sentMessage{chatId, text})
	return nil
}

func (c *fakeChat) messages() []sentMessage {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]sentMessage{}, c.sent...)
}

type fakeEventBus struct {
	lock      sync.Mutex
	published []domain.Event
	subs      []chan domain.Event
}

func (b *fakeEventBus) Publish(_ context.Context, events ...domain.Event) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.published = append(b.published, events...)
	for _, ch := range b.subs {
		for _, e := range events {
			ch <- e
		}
	}
	return nil
}

func (b *fakeEventBus) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	ch := make(chan domain.Event, 16)
	b.subs = append(b.subs, ch)
	go func() {
		<-ctx.Done()
		b.lock.Lock()
		defer b.lock.Unlock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (b *fakeEventBus) Close() error { return nil }

func (b *fakeEventBus) events() []domain.Event {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]domain.Event{}, b.published...)
}

type mockManager struct {
	mock.Mock
}

func (m *mockManager) Validate(
	ctx context.Context, envelope domain.Envelope, signatureData []byte,
) error {
	args := m.Called(ctx, envelope, signatureData)
	return args.Error(0)
}

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) Sign(ctx context.Context, envelope domain.Envelope) ([]byte, error) {
	args := m.Called(ctx, envelope)
	var res []byte
	if v := args.Get(0); v != nil {
		res = v.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSigner) PubKey() string {
	return "operator"
}

type manualScheduler struct {
	task     func()
	interval int64
	started  bool
	stopped  bool
}

func (s *manualScheduler) Start() { s.started = true }
func (s *manualScheduler) Stop()  { s.stopped = true }
func (s *manualScheduler) ScheduleEvery(interval time.Duration, task func()) error {
	s.interval = int64(interval)
	s.task = task
	return nil
}

func textMessage(id int64, username, text string) *domain.ChatMessage {
	return &domain.ChatMessage{
		Id:   id,
		From: &domain.ChatUser{Id: 42, FirstName: "Alice", Username: username},
		Chat: domain.Chat{Id: -100, Type: domain.ChatTypeSupergroup},
		Text: text,
	}
}
