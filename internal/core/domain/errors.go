package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNullOrder ...
	ErrNullOrder = errors.New("order must not be null")
	// ErrUnknownMessageKind ...
	ErrUnknownMessageKind = errors.New("unknown message kind")
	// ErrMalformedMessage ...
	ErrMalformedMessage = errors.New(
		"message must be an object with a single kind key or a [message, signature] tuple",
	)
	// ErrMissingPaymentRequest ...
	ErrMissingPaymentRequest = errors.New("message carries no payment request")
	// ErrMissingOrder ...
	ErrMissingOrder = errors.New("message carries no order")
)

// DecodeError is returned for inbound events that cannot be turned into
// domain objects. Such events are dropped by the dispatcher, never fatal.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode: %s", e.Reason)
	}
	return fmt.Sprintf("decode %s: %s", e.Field, e.Reason)
}

func newDecodeError(field, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validation error codes.
const (
	CodeInvalidFiatCode       = "INVALID_FIAT_CODE"
	CodeInvalidPaymentMethod  = "INVALID_PAYMENT_METHOD"
	CodeInvalidPremium        = "INVALID_PREMIUM"
	CodeInvalidRange          = "INVALID_RANGE"
	CodeNegativeRange         = "NEGATIVE_RANGE"
	CodeInvalidAmountForRange = "INVALID_AMOUNT_FOR_RANGE"
	CodeInvalidMarketPrice    = "INVALID_MARKET_PRICE"
	CodeInvalidOrderKind      = "INVALID_ORDER_KIND"
)

// ValidationError reports a malformed order field with a stable code.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *ValidationError with the same code, so that callers can
// test errors.Is(err, &ValidationError{Code: CodeInvalidRange}).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}
