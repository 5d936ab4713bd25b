package application

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestTimeout is returned when no response was observed before the
	// deadline. It is distinct from a refusal by Mostro, see CantDoError.
	ErrRequestTimeout = errors.New("request timed out waiting for a response")
	// ErrRequestCanceled ...
	ErrRequestCanceled = errors.New("request canceled")
	// ErrNullTransport ...
	ErrNullTransport = errors.New("transport must not be null")
	// ErrNullKeyManager ...
	ErrNullKeyManager = errors.New("key manager must not be null")
	// ErrInvalidMostroPubkey ...
	ErrInvalidMostroPubkey = errors.New("mostro public key must be a valid hex or npub key")
	// ErrInvalidRequestTimeout ...
	ErrInvalidRequestTimeout = errors.New("request timeout must be a positive duration")
	// ErrNotConnected is returned by operations that need Connect first.
	ErrNotConnected = errors.New("client is not connected")
	// ErrAlreadyConnected ...
	ErrAlreadyConnected = errors.New("client is already connected")
	// ErrClientClosed ...
	ErrClientClosed = errors.New("client is closed")
	// ErrNullOrderID ...
	ErrNullOrderID = errors.New("order id must not be null")
	// ErrNullInvoice ...
	ErrNullInvoice = errors.New("invoice must not be null")
	// ErrOrderKindMismatch is returned when taking a listed order with the
	// action of the opposite kind.
	ErrOrderKindMismatch = errors.New("order kind does not match the take action")
	// ErrNullPeerMessage ...
	ErrNullPeerMessage = errors.New("peer message must not be empty")
)

// CantDoError is returned when Mostro answered a request with cant-do.
type CantDoError struct {
	Reason string
}

func (e *CantDoError) Error() string {
	if e.Reason == "" {
		return "request refused by mostro"
	}
	return fmt.Sprintf("request refused by mostro: %s", e.Reason)
}
