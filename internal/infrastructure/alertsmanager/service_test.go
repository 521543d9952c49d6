package alertsmanager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(url string) *service {
	svc := NewService(url).(*service)
	svc.baseDelay = time.Millisecond
	return svc
}

func TestPublish(t *testing.T) {
	t.Run("user registered", func(t *testing.T) {
		var received []Alert
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(
			context.Background(), ports.UserRegistered,
			ports.UserRegisteredAlert{Handle: "alice", Address: "layer1abc"},
		)
		require.NoError(t, err)
		require.Len(t, received, 1)
		require.Equal(t, "User Registered", received[0].Labels["alertname"])
		require.Equal(t, "alice", received[0].Labels["tg_handle"])
		require.Contains(t, received[0].Annotations["description"], "@alice")
		require.Contains(t, received[0].Annotations["description"], "layer1abc")
	})

	t.Run("payment sent to escrow", func(t *testing.T) {
		var received []Alert
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(
			context.Background(), ports.PaymentSent,
			ports.PaymentSentAlert{
				FromHandle: "alice", FromAddress: "layer1abc",
				ToHandle: "bob", ToAddress: "layer1ledger",
				Amount: "100", Denom: "uslay", Escrowed: true,
			},
		)
		require.NoError(t, err)
		require.Len(t, received, 1)
		desc := received[0].Annotations["description"]
		require.Contains(t, desc, "100 uslay")
		require.Contains(t, desc, "escrow")
		require.NotContains(t, desc, "layer1ledger")
	})

	t.Run("invalid message type", func(t *testing.T) {
		err := newTestService("http://127.0.0.1:0").Publish(
			context.Background(), ports.PaymentSent, "not an alert",
		)
		require.ErrorContains(t, err, "invalid message type")
	})
}

func TestSendAlertRetries(t *testing.T) {
	t.Run("retries on server error", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(context.Background(), "Custom", "hello")
		require.NoError(t, err)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up on client error", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(context.Background(), "Custom", "hello")
		require.ErrorContains(t, err, "status 400")
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(context.Background(), "Custom", "hello")
		require.Error(t, err)
		require.Equal(t, int32(maxRetries), calls.Load())
	})
}
