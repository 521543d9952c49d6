package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/stretchr/testify/require"
)

type recordedAlert struct {
	topic   ports.Topic
	message any
}

type fakeAlerts struct {
	lock   sync.Mutex
	alerts []recordedAlert
}

func (a *fakeAlerts) Publish(_ context.Context, topic ports.Topic, message any) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.alerts = append(a.alerts, recordedAlert{topic, message})
	return nil
}

func (a *fakeAlerts) recorded() []recordedAlert {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]recordedAlert{}, a.alerts...)
}

func TestReporter(t *testing.T) {
	ctx := context.Background()
	events := &fakeEventBus{}
	chat := &fakeChat{}
	alerts := &fakeAlerts{}

	reporter, err := NewReporterService(ReporterConfig{
		GroupId:       -100,
		LedgerAddress: "ledger",
	}, events, chat, alerts)
	require.NoError(t, err)
	require.NoError(t, reporter.Start(ctx))

	require.NoError(t, events.Publish(ctx,
		domain.RegistrationEvent{Handle: "alice", Address: "addr1"},
		domain.SendPaymentEvent{
			FromHandle:  "alice",
			ToHandle:    "bob",
			FromAddress: "addr1",
			ToAddress:   "ledger",
			Amount:      domain.NewAmount(10),
			Denom:       "ulayer",
		},
	))

	require.Eventually(t, func() bool {
		return len(chat.messages()) == 2 && len(alerts.recorded()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	reporter.Stop()

	msgs := chat.messages()
	require.Equal(t, sentMessage{-100, "New user registered!\nTelegram: @alice\nAddress: addr1"}, msgs[0])
	require.Equal(t, sentMessage{
		-100, "Payment sent!\nFrom: @alice (addr1)\nTo: @bob (ledger)\nAmount: 10 ulayer",
	}, msgs[1])

	recorded := alerts.recorded()
	require.Equal(t, ports.UserRegistered, recorded[0].topic)
	require.Equal(t, ports.PaymentSent, recorded[1].topic)
	payment, ok := recorded[1].message.(ports.PaymentSentAlert)
	require.True(t, ok)
	require.True(t, payment.Escrowed)

	t.Run("missing chat", func(t *testing.T) {
		_, err := NewReporterService(ReporterConfig{GroupId: -1}, events, nil, nil)
		require.Error(t, err)
	})
}
