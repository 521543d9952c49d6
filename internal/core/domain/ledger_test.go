package domain_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/require"
)

const hrp = "layer"

func testAddress(t *testing.T, seed byte) string {
	t.Helper()
	data, err := bech32.ConvertBits(bytes.Repeat([]byte{seed}, 20), 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.Encode(hrp, data)
	require.NoError(t, err)
	return addr
}

// memState is a minimal ledger state applying transitions in place.
type memState struct {
	open    map[string]string
	funded  map[string]string
	pending map[string]domain.PendingPayments
}

func newMemState() *memState {
	return &memState{
		open:    make(map[string]string),
		funded:  make(map[string]string),
		pending: make(map[string]domain.PendingPayments),
	}
}

func (s *memState) GetAddrByHandle(_ context.Context, handle string) (string, error) {
	return s.open[handle], nil
}

func (s *memState) GetHandleByAddr(_ context.Context, addr string) (string, error) {
	return s.funded[addr], nil
}

func (s *memState) GetPendingPayments(
	_ context.Context, handle string,
) (*domain.PendingPayments, error) {
	p, ok := s.pending[handle]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memState) apply(tr *domain.Transition) {
	if tr.Open != nil {
		s.open[tr.Open.Handle] = tr.Open.Address
	}
	if tr.Funded != nil {
		s.funded[tr.Funded.Address] = tr.Funded.Handle
	}
	if tr.Pending != nil {
		s.pending[tr.Pending.Handle] = *tr.Pending
	}
	if tr.ClearPending != "" {
		delete(s.pending, tr.ClearPending)
	}
}

type ledgerFixture struct {
	ledger *domain.Ledger
	state  *memState
	admin  domain.Caller
	self   string
}

func newLedgerFixture(t *testing.T, mode domain.AuthMode) ledgerFixture {
	t.Helper()
	state := newMemState()
	self := testAddress(t, 0xff)
	authAddr := testAddress(t, 0xaa)
	ledger, err := domain.NewLedger(domain.LedgerConfig{
		Address:       self,
		AddressPrefix: hrp,
		AllowedDenoms: []string{"ulayer", "uatom"},
		Auth:          domain.AuthRoot{Mode: mode, Address: authAddr},
	}, state)
	require.NoError(t, err)
	return ledgerFixture{ledger, state, domain.CallerFromAddress(authAddr), self}
}

// mustApply returns a sink for a ledger call that requires success and applies the transition.
func (f ledgerFixture) mustApply(t *testing.T) func(*domain.Transition, error) *domain.Transition {
	return func(tr *domain.Transition, err error) *domain.Transition {
		t.Helper()
		require.NoError(t, err)
		require.NotNil(t, tr)
		f.state.apply(tr)
		return tr
	}
}

func (f ledgerFixture) registerBoth(t *testing.T, handle, addr string) {
	t.Helper()
	ctx := context.Background()
	f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, handle, addr))
	f.mustApply(t)(f.ledger.RegisterSend(ctx, addr, handle))
}

func TestLedgerConfigValidate(t *testing.T) {
	valid := domain.LedgerConfig{
		Address:       testAddress(t, 1),
		AddressPrefix: hrp,
		AllowedDenoms: []string{"ulayer"},
		Auth:          domain.AuthRoot{Mode: domain.AuthModeAdmin, Address: testAddress(t, 2)},
	}
	require.NoError(t, valid.Validate())

	fixtures := []struct {
		name   string
		mutate func(c *domain.LedgerConfig)
	}{
		{"bad address", func(c *domain.LedgerConfig) { c.Address = "nope" }},
		{"wrong prefix", func(c *domain.LedgerConfig) { c.AddressPrefix = "cosmos" }},
		{"no denoms", func(c *domain.LedgerConfig) { c.AllowedDenoms = nil }},
		{"dup denoms", func(c *domain.LedgerConfig) { c.AllowedDenoms = []string{"a", "a"} }},
		{"empty denom", func(c *domain.LedgerConfig) { c.AllowedDenoms = []string{""} }},
		{"bad mode", func(c *domain.LedgerConfig) { c.Auth.Mode = "root" }},
		{"no auth addr", func(c *domain.LedgerConfig) { c.Auth.Address = "" }},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			cfg := valid
			cfg.AllowedDenoms = append([]string{}, valid.AllowedDenoms...)
			f.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestRegisterReceive(t *testing.T) {
	ctx := context.Background()

	t.Run("first writer wins", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)
		a1, a2 := testAddress(t, 1), testAddress(t, 2)

		tr := f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, "alice", a1))
		require.Empty(t, tr.Response.Messages)
		require.Equal(t, []domain.Attribute{
			{Key: "method", Value: "register_receive"},
			{Key: "tg_handle", Value: "alice"},
			{Key: "chain_addr", Value: a1},
		}, tr.Response.Attributes)
		require.Equal(t, []domain.Event{
			domain.RegistrationEvent{Handle: "alice", Address: a1},
		}, tr.Response.Events)

		for _, addr := range []string{a1, a2} {
			_, err := f.ledger.RegisterReceive(ctx, f.admin, "alice", addr)
			require.ErrorIs(t, err, domain.ErrHandleAlreadyRegistered)
		}
		require.Equal(t, a1, f.state.open["alice"])
	})

	t.Run("only the admin can register", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)
		stranger := domain.CallerFromAddress(testAddress(t, 3))

		_, err := f.ledger.RegisterReceive(ctx, stranger, "alice", testAddress(t, 1))
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("manager mode only trusts verified callers", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeManager)

		_, err := f.ledger.RegisterReceive(ctx, f.admin, "alice", testAddress(t, 1))
		require.ErrorIs(t, err, domain.ErrUnauthorized)

		f.mustApply(t)(f.ledger.RegisterReceive(
			ctx, domain.VerifiedCaller(), "alice", testAddress(t, 1),
		))
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)

		_, err := f.ledger.RegisterReceive(ctx, f.admin, "alice", "not-an-address")
		require.ErrorIs(t, err, domain.ErrInvalidAddress)

		otherPrefix, err := bech32.Encode("cosmos", []byte{1, 2, 3, 4})
		require.NoError(t, err)
		_, err = f.ledger.RegisterReceive(ctx, f.admin, "alice", otherPrefix)
		require.ErrorIs(t, err, domain.ErrInvalidAddress)

		_, err = f.ledger.RegisterReceive(ctx, f.admin, "", testAddress(t, 1))
		require.ErrorIs(t, err, domain.ErrInvalidHandle)
		require.Empty(t, f.state.open)
	})
}

func TestRegisterSend(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t, domain.AuthModeAdmin)
	a1, a2 := testAddress(t, 1), testAddress(t, 2)

	t.Run("unregistered handle", func(t *testing.T) {
		_, err := f.ledger.RegisterSend(ctx, a1, "alice")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, "alice", a1))

	t.Run("mismatched address", func(t *testing.T) {
		_, err := f.ledger.RegisterSend(ctx, a2, "alice")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("matching address", func(t *testing.T) {
		tr := f.mustApply(t)(f.ledger.RegisterSend(ctx, a1, "alice"))
		require.Equal(t, &domain.Registration{Handle: "alice", Address: a1}, tr.Funded)
		require.Equal(t, "register_send", tr.Response.Attributes[0].Value)
	})

	t.Run("address can claim send rights once", func(t *testing.T) {
		_, err := f.ledger.RegisterSend(ctx, a1, "alice")
		require.ErrorIs(t, err, domain.ErrAddressAlreadyRegistered)

		f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, "alice2", a1))
		_, err = f.ledger.RegisterSend(ctx, a1, "alice2")
		require.ErrorIs(t, err, domain.ErrAddressAlreadyRegistered)
		require.Equal(t, "alice", f.state.funded[a1])
	})

	t.Run("empty caller", func(t *testing.T) {
		_, err := f.ledger.RegisterSend(ctx, "", "alice")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestSendPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("preconditions are checked in order", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)
		stranger := domain.CallerFromAddress(testAddress(t, 9))

		fixtures := []struct {
			name     string
			caller   domain.Caller
			msg      domain.SendPaymentMsg
			expected error
		}{
			{
				"unauthorized caller beats bad denom",
				stranger,
				domain.SendPaymentMsg{FromHandle: "bob", ToHandle: "alice", Denom: "nope"},
				domain.ErrUnauthorized,
			},
			{
				"denom beats zero amount",
				f.admin,
				domain.SendPaymentMsg{FromHandle: "bob", ToHandle: "alice", Denom: "nope"},
				domain.ErrTokenNotWhitelisted,
			},
			{
				"zero amount beats unknown sender",
				f.admin,
				domain.SendPaymentMsg{FromHandle: "bob", ToHandle: "alice", Denom: "ulayer"},
				domain.ErrZeroAmount,
			},
			{
				"unknown sender",
				f.admin,
				domain.SendPaymentMsg{
					FromHandle: "bob", ToHandle: "alice",
					Amount: domain.NewAmount(1), Denom: "ulayer",
				},
				domain.ErrUnauthorized,
			},
		}
		for _, tt := range fixtures {
			t.Run(tt.name, func(t *testing.T) {
				tr, err := f.ledger.SendPayment(ctx, tt.caller, tt.msg)
				require.ErrorIs(t, err, tt.expected)
				require.Nil(t, tr)
			})
		}
		require.Empty(t, f.state.pending)
	})

	t.Run("sender must have completed both registrations", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)
		bobAddr := testAddress(t, 2)
		f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, "bob", bobAddr))

		_, err := f.ledger.SendPayment(ctx, f.admin, domain.SendPaymentMsg{
			FromHandle: "bob", ToHandle: "alice", Amount: domain.NewAmount(1), Denom: "ulayer",
		})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("registered recipient gets a delegated transfer", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)
		aliceAddr, bobAddr := testAddress(t, 1), testAddress(t, 2)
		f.registerBoth(t, "bob", bobAddr)
		f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, "alice", aliceAddr))

		tr := f.mustApply(t)(f.ledger.SendPayment(ctx, f.admin, domain.SendPaymentMsg{
			FromHandle: "bob", ToHandle: "alice", Amount: domain.NewAmount(100), Denom: "ulayer",
		}))

		require.Nil(t, tr.Pending)
		require.Equal(t, []domain.Msg{
			domain.Exec{
				Grantee: f.self,
				Msgs: []domain.MsgSend{{
					FromAddress: bobAddr,
					ToAddress:   aliceAddr,
					Amount:      domain.Coins{domain.NewCoin(100, "ulayer")},
				}},
			},
		}, tr.Response.Messages)
		require.Equal(t, []domain.Attribute{
			{Key: "method", Value: "send_payment"},
			{Key: "from_tg", Value: "bob"},
			{Key: "to_tg", Value: "alice"},
			{Key: "amount", Value: "100"},
			{Key: "denom", Value: "ulayer"},
		}, tr.Response.Attributes)
		require.Empty(t, f.state.pending)
	})

	t.Run("escrow then drain on registration", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeAdmin)
		aliceAddr, bobAddr := testAddress(t, 1), testAddress(t, 2)
		f.registerBoth(t, "bob", bobAddr)

		send := func(amount uint64, denom string) *domain.Transition {
			return f.mustApply(t)(f.ledger.SendPayment(ctx, f.admin, domain.SendPaymentMsg{
				FromHandle: "bob", ToHandle: "alice",
				Amount: domain.NewAmount(amount), Denom: denom,
			}))
		}

		tr := send(100, "ulayer")
		require.Equal(t, []domain.Msg{
			domain.Exec{
				Grantee: f.self,
				Msgs: []domain.MsgSend{{
					FromAddress: bobAddr,
					ToAddress:   f.self,
					Amount:      domain.Coins{domain.NewCoin(100, "ulayer")},
				}},
			},
		}, tr.Response.Messages)
		require.Equal(t, domain.Coins{domain.NewCoin(100, "ulayer")}, f.state.pending["alice"].Balances)

		send(50, "uatom")
		send(20, "ulayer")
		require.Equal(t, domain.Coins{
			domain.NewCoin(50, "uatom"), domain.NewCoin(120, "ulayer"),
		}, f.state.pending["alice"].Balances)

		tr = f.mustApply(t)(f.ledger.RegisterReceive(ctx, f.admin, "alice", aliceAddr))
		require.Equal(t, "alice", tr.ClearPending)
		require.Equal(t, []domain.Msg{
			domain.BankSend{
				ToAddress: aliceAddr,
				Amount: domain.Coins{
					domain.NewCoin(50, "uatom"), domain.NewCoin(120, "ulayer"),
				},
			},
		}, tr.Response.Messages)
		require.NotContains(t, f.state.pending, "alice")

		// later payments go straight to the recipient
		tr = send(1, "ulayer")
		require.Nil(t, tr.Pending)
		require.NotContains(t, f.state.pending, "alice")
	})

	t.Run("verified caller in manager mode", func(t *testing.T) {
		f := newLedgerFixture(t, domain.AuthModeManager)
		bobAddr := testAddress(t, 2)
		f.mustApply(t)(f.ledger.RegisterReceive(ctx, domain.VerifiedCaller(), "bob", bobAddr))
		f.mustApply(t)(f.ledger.RegisterSend(ctx, bobAddr, "bob"))

		_, err := f.ledger.SendPayment(ctx, f.admin, domain.SendPaymentMsg{
			FromHandle: "bob", ToHandle: "alice", Amount: domain.NewAmount(1), Denom: "ulayer",
		})
		require.ErrorIs(t, err, domain.ErrUnauthorized)

		f.mustApply(t)(f.ledger.Execute(ctx, domain.VerifiedCaller(), domain.SendPaymentMsg{
			FromHandle: "bob", ToHandle: "alice", Amount: domain.NewAmount(1), Denom: "ulayer",
		}))
		require.Contains(t, f.state.pending, "alice")
	})
}

func TestLedgerWithState(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t, domain.AuthModeAdmin)
	aliceAddr := testAddress(t, 1)
	f.registerBoth(t, "alice", aliceAddr)

	other := newMemState()
	ledger := f.ledger.WithState(other)
	require.Equal(t, f.ledger.Config(), ledger.Config())

	_, err := ledger.SendPayment(ctx, f.admin, domain.SendPaymentMsg{
		FromHandle: "alice", ToHandle: "bob", Amount: domain.NewAmount(1), Denom: "ulayer",
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	tr, err := f.ledger.SendPayment(ctx, f.admin, domain.SendPaymentMsg{
		FromHandle: "alice", ToHandle: "bob", Amount: domain.NewAmount(1), Denom: "ulayer",
	})
	require.NoError(t, err)
	require.NotNil(t, tr.Pending)
}
