package errors

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

// Unwrap exposes the cause so that domain sentinels survive errors.Is checks.
func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type HandleMetadata struct {
	Handle string `json:"tg_handle"`
}

type AddressMetadata struct {
	Address string `json:"chain_addr"`
}

type RegistrationMetadata struct {
	Handle  string `json:"tg_handle"`
	Address string `json:"chain_addr"`
}

type DenomMetadata struct {
	Denom         string   `json:"denom"`
	AllowedDenoms []string `json:"allowed_denoms"`
}

type PaymentMetadata struct {
	FromHandle string `json:"from_tg"`
	ToHandle   string `json:"to_tg"`
	Amount     string `json:"amount"`
	Denom      string `json:"denom"`
}

type EnvelopeMetadata struct {
	Payload string `json:"payload"`
}

type AuthModeMetadata struct {
	Mode string `json:"mode"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}
var UNAUTHORIZED = Code[AddressMetadata]{1, "UNAUTHORIZED", grpccodes.PermissionDenied}

var INVALID_SIGNATURE = Code[EnvelopeMetadata]{
	2,
	"INVALID_SIGNATURE",
	grpccodes.Unauthenticated,
}

var HANDLE_ALREADY_REGISTERED = Code[RegistrationMetadata]{
	3,
	"HANDLE_ALREADY_REGISTERED",
	grpccodes.AlreadyExists,
}

var ADDRESS_ALREADY_REGISTERED = Code[RegistrationMetadata]{
	4,
	"ADDRESS_ALREADY_REGISTERED",
	grpccodes.AlreadyExists,
}

var TOKEN_NOT_WHITELISTED = Code[DenomMetadata]{
	5,
	"TOKEN_NOT_WHITELISTED",
	grpccodes.InvalidArgument,
}
var ZERO_AMOUNT = Code[PaymentMetadata]{6, "ZERO_AMOUNT", grpccodes.InvalidArgument}
var INVALID_ADDRESS = Code[AddressMetadata]{7, "INVALID_ADDRESS", grpccodes.InvalidArgument}

var MALFORMED_ENVELOPE = Code[EnvelopeMetadata]{
	8,
	"MALFORMED_ENVELOPE",
	grpccodes.InvalidArgument,
}
var WRONG_AUTH_MODE = Code[AuthModeMetadata]{9, "WRONG_AUTH_MODE", grpccodes.FailedPrecondition}
var AMOUNT_OVERFLOW = Code[PaymentMetadata]{10, "AMOUNT_OVERFLOW", grpccodes.OutOfRange}
var INVALID_HANDLE = Code[HandleMetadata]{11, "INVALID_HANDLE", grpccodes.InvalidArgument}
