package domain

import (
	"context"
	"fmt"
)

type AuthMode string

const (
	// AuthModeAdmin lets a single admin address invoke privileged operations directly.
	AuthModeAdmin AuthMode = "admin"
	// AuthModeManager only accepts privileged operations from envelopes validated by the manager.
	AuthModeManager AuthMode = "manager"
)

type AuthRoot struct {
	Mode    AuthMode
	Address string
}

type LedgerConfig struct {
	// Address is the ledger's own account: escrow custodian and grantee of the spend allowances.
	Address       string
	AddressPrefix string
	AllowedDenoms []string
	Auth          AuthRoot
}

func (c LedgerConfig) Validate() error {
	if err := ValidateAddress(c.Address, c.AddressPrefix); err != nil {
		return fmt.Errorf("invalid ledger address: %w", err)
	}
	if len(c.AllowedDenoms) <= 0 {
		return fmt.Errorf("missing allowed denoms")
	}
	seen := make(map[string]struct{}, len(c.AllowedDenoms))
	for _, denom := range c.AllowedDenoms {
		if len(denom) <= 0 {
			return fmt.Errorf("empty denom in allowed denoms")
		}
		if _, ok := seen[denom]; ok {
			return fmt.Errorf("duplicated allowed denom %s", denom)
		}
		seen[denom] = struct{}{}
	}
	switch c.Auth.Mode {
	case AuthModeAdmin, AuthModeManager:
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	if len(c.Auth.Address) <= 0 {
		return fmt.Errorf("missing %s address", c.Auth.Mode)
	}
	return nil
}

// Caller is the authorization context of a ledger operation.
type Caller struct {
	address  string
	verified bool
}

// CallerFromAddress is the context of an operation submitted directly by a chain account.
func CallerFromAddress(address string) Caller {
	return Caller{address: address}
}

// VerifiedCaller is the context of an operation decoded from a validated envelope: the ledger
// acts on its own trust.
func VerifiedCaller() Caller {
	return Caller{verified: true}
}

func (c Caller) Address() string {
	return c.address
}

type Registration struct {
	Handle  string
	Address string
}

type Response struct {
	Messages   []Msg
	Attributes []Attribute
	Events     []Event
}

// Transition is the outcome of an accepted operation. It must be applied atomically.
type Transition struct {
	Open         *Registration
	Funded       *Registration
	Pending      *PendingPayments
	ClearPending string
	Response     Response
}

type Ledger struct {
	cfg    LedgerConfig
	denoms map[string]struct{}
	state  LedgerReader
}

func NewLedger(cfg LedgerConfig, state LedgerReader) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("missing ledger state")
	}
	denoms := make(map[string]struct{}, len(cfg.AllowedDenoms))
	for _, denom := range cfg.AllowedDenoms {
		denoms[denom] = struct{}{}
	}
	return &Ledger{cfg, denoms, state}, nil
}

// WithState returns a ledger with the same parameters reading from state.
func (l *Ledger) WithState(state LedgerReader) *Ledger {
	return &Ledger{l.cfg, l.denoms, state}
}

func (l *Ledger) Config() LedgerConfig {
	return l.cfg
}

// Execute dispatches a direct operation.
func (l *Ledger) Execute(ctx context.Context, caller Caller, msg ExecuteMsg) (*Transition, error) {
	switch m := msg.(type) {
	case RegisterReceiveMsg:
		return l.RegisterReceive(ctx, caller, m.Handle, m.Address)
	case RegisterSendMsg:
		return l.RegisterSend(ctx, caller.address, m.Handle)
	case SendPaymentMsg:
		return l.SendPayment(ctx, caller, m)
	default:
		return nil, fmt.Errorf("unknown operation %T", msg)
	}
}

// RegisterReceive records that handle receives funds at address. Any escrow held for handle is
// released to address within the same transition.
func (l *Ledger) RegisterReceive(
	ctx context.Context, caller Caller, handle, address string,
) (*Transition, error) {
	if err := l.authorize(caller); err != nil {
		return nil, err
	}
	if len(handle) <= 0 {
		return nil, ErrInvalidHandle
	}
	if err := ValidateAddress(address, l.cfg.AddressPrefix); err != nil {
		return nil, err
	}

	existing, err := l.state.GetAddrByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrHandleAlreadyRegistered
	}

	pending, err := l.state.GetPendingPayments(ctx, handle)
	if err != nil {
		return nil, err
	}

	transition := &Transition{
		Open: &Registration{Handle: handle, Address: address},
	}
	if pending != nil && !pending.Balances.IsEmpty() {
		transition.ClearPending = handle
		transition.Response.Messages = append(transition.Response.Messages, BankSend{
			ToAddress: address,
			Amount:    pending.Balances,
		})
	}
	transition.Response.Attributes = []Attribute{
		{"method", "register_receive"},
		{"tg_handle", handle},
		{"chain_addr", address},
	}
	transition.Response.Events = []Event{
		RegistrationEvent{Handle: handle, Address: address},
	}
	return transition, nil
}

// RegisterSend lets callerAddress send as handle. The handle must already receive at
// callerAddress and an address can claim send rights only once.
func (l *Ledger) RegisterSend(
	ctx context.Context, callerAddress, handle string,
) (*Transition, error) {
	if len(callerAddress) <= 0 {
		return nil, ErrUnauthorized
	}

	funded, err := l.state.GetHandleByAddr(ctx, callerAddress)
	if err != nil {
		return nil, err
	}
	if len(funded) > 0 {
		return nil, ErrAddressAlreadyRegistered
	}

	open, err := l.state.GetAddrByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if len(open) <= 0 || open != callerAddress {
		return nil, ErrUnauthorized
	}

	return &Transition{
		Funded: &Registration{Handle: handle, Address: callerAddress},
		Response: Response{
			Attributes: []Attribute{
				{"method", "register_send"},
				{"tg_handle", handle},
				{"chain_addr", callerAddress},
			},
		},
	}, nil
}

// SendPayment moves amount of denom from the sender handle's funded address to the recipient.
// Unregistered recipients are paid into escrow held by the ledger address.
func (l *Ledger) SendPayment(
	ctx context.Context, caller Caller, msg SendPaymentMsg,
) (*Transition, error) {
	if err := l.authorize(caller); err != nil {
		return nil, err
	}
	if _, ok := l.denoms[msg.Denom]; !ok {
		return nil, ErrTokenNotWhitelisted
	}
	if msg.Amount.IsZero() {
		return nil, ErrZeroAmount
	}

	// A sender missing either registration is reported as unauthorized so that the
	// registration state of a handle is not disclosed.
	fromAddress, err := l.state.GetAddrByHandle(ctx, msg.FromHandle)
	if err != nil {
		return nil, err
	}
	if len(fromAddress) <= 0 {
		return nil, ErrUnauthorized
	}
	fundedHandle, err := l.state.GetHandleByAddr(ctx, fromAddress)
	if err != nil {
		return nil, err
	}
	if fundedHandle != msg.FromHandle {
		return nil, ErrUnauthorized
	}

	coin := Coin{Denom: msg.Denom, Amount: msg.Amount}
	transition := &Transition{}

	toAddress, err := l.state.GetAddrByHandle(ctx, msg.ToHandle)
	if err != nil {
		return nil, err
	}
	if len(toAddress) <= 0 {
		pending, err := l.state.GetPendingPayments(ctx, msg.ToHandle)
		if err != nil {
			return nil, err
		}
		if pending == nil {
			pending = &PendingPayments{Handle: msg.ToHandle}
		}
		if err := pending.AddPayment(coin); err != nil {
			return nil, err
		}
		transition.Pending = pending
		toAddress = l.cfg.Address
	}

	transition.Response = Response{
		Messages: []Msg{
			Exec{
				Grantee: l.cfg.Address,
				Msgs: []MsgSend{{
					FromAddress: fromAddress,
					ToAddress:   toAddress,
					Amount:      Coins{coin},
				}},
			},
		},
		Attributes: []Attribute{
			{"method", "send_payment"},
			{"from_tg", msg.FromHandle},
			{"to_tg", msg.ToHandle},
			{"amount", msg.Amount.String()},
			{"denom", msg.Denom},
		},
		Events: []Event{
			SendPaymentEvent{
				FromHandle:  msg.FromHandle,
				ToHandle:    msg.ToHandle,
				FromAddress: fromAddress,
				ToAddress:   toAddress,
				Amount:      msg.Amount,
				Denom:       msg.Denom,
			},
		},
	}
	return transition, nil
}

func (l *Ledger) authorize(caller Caller) error {
	if caller.verified {
		return nil
	}
	if l.cfg.Auth.Mode == AuthModeAdmin && caller.address == l.cfg.Auth.Address {
		return nil
	}
	return ErrUnauthorized
}
