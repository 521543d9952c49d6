package domain

import "errors"

var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrHandleAlreadyRegistered  = errors.New("tg handle already registered")
	ErrAddressAlreadyRegistered = errors.New("address already registered")
	ErrTokenNotWhitelisted      = errors.New("token not whitelisted")
	ErrZeroAmount               = errors.New("cannot send zero amount")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrMalformedEnvelope        = errors.New("malformed envelope payload")
	ErrWrongAuthMode            = errors.New("operation not supported by the ledger auth mode")
	ErrAmountOverflow           = errors.New("amount overflow")
	ErrInvalidHandle            = errors.New("invalid tg handle")
)
