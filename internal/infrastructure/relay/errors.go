package relay

import (
	"errors"
)

var (
	// ErrNullRelayURLs ...
	ErrNullRelayURLs = errors.New("at least one relay url is required")
	// ErrInvalidRelayURL ...
	ErrInvalidRelayURL = errors.New("relay url must use the ws or wss scheme")
	// ErrNotConnected is returned when no relay connection is up.
	ErrNotConnected = errors.New("not connected to any relay")
	// ErrPoolClosed ...
	ErrPoolClosed = errors.New("relay pool is closed")
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("event signature is invalid")
	// ErrEventRejected is returned when a relay answers OK false.
	ErrEventRejected = errors.New("event rejected by relay")
	// ErrPublishTimeout ...
	ErrPublishTimeout = errors.New("timed out waiting for relay acknowledgement")
	// ErrPublishFailed is returned when no relay accepted the event.
	ErrPublishFailed = errors.New("no relay accepted the event")
	// ErrMalformedRelayMessage ...
	ErrMalformedRelayMessage = errors.New("malformed relay message")
)
