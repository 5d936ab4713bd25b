package keymanager

import (
	"errors"
)

var (
	// ErrNullStore ...
	ErrNullStore = errors.New("trade key store must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullOrderID ...
	ErrNullOrderID = errors.New("order id must not be null")

	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New("derivation path is malformed")
	// ErrInvalidBasePath ...
	ErrInvalidBasePath = errors.New(
		"base path must be in the form m/purpose'/coin_type'/account'/change",
	)
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidSeed ...
	ErrInvalidSeed = errors.New("seed must be between 16 and 64 bytes long")
	// ErrInvalidKeyIndex ...
	ErrInvalidKeyIndex = errors.New("key index must be in the non-hardened range")

	// ErrNotInitialized is returned by every operation that needs the master
	// key before Initialize was called, or after Clear.
	ErrNotInitialized = errors.New("key manager is not initialized")
	// ErrAlreadyInitialized ...
	ErrAlreadyInitialized = errors.New("key manager is already initialized")
	// ErrDerivationFailed ...
	ErrDerivationFailed = errors.New("key derivation failed")
	// ErrIndexExhausted is returned when the next trade key index would fall
	// into the hardened range.
	ErrIndexExhausted = errors.New("trade key indexes exhausted")
	// ErrPublicKeyGenerationFailed ...
	ErrPublicKeyGenerationFailed = errors.New("public key generation failed")
	// ErrTradeKeyNotFound ...
	ErrTradeKeyNotFound = errors.New("trade key not found")
)
