package nostr

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

var (
	// ErrNullPrivateKey ...
	ErrNullPrivateKey = errors.New("private key must not be null")
	// ErrInvalidPrivateKey ...
	ErrInvalidPrivateKey = errors.New(
		"private key must be a 32 byte scalar in the secp256k1 range, hex encoded",
	)
	// ErrInvalidPublicKey ...
	ErrInvalidPublicKey = errors.New(
		"public key must be a 32 byte x-only point, hex encoded",
	)
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("signature must be a 64 byte schnorr signature")
)

// GeneratePrivateKey returns a fresh random secp256k1 private key.
func GeneratePrivateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ParsePrivateKey parses a hex encoded 32 byte private key. Zero and
// out-of-range scalars are rejected.
func ParsePrivateKey(privkey string) (*btcec.PrivateKey, error) {
	buf, err := hex.DecodeString(privkey)
	if err != nil || len(buf) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	return PrivateKeyFromBytes(buf)
}

// PrivateKeyFromBytes validates and converts raw bytes into a private key.
func PrivateKeyFromBytes(buf []byte) (*btcec.PrivateKey, error) {
	if len(buf) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(buf); overflow || scalar.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	key, _ := btcec.PrivKeyFromBytes(buf)
	return key, nil
}

// PrivateKeyHex returns the hex encoding of the private key.
func PrivateKeyHex(key *btcec.PrivateKey) string {
	return hex.EncodeToString(key.Serialize())
}

// ParsePublicKey parses a hex encoded x-only public key.
func ParsePublicKey(pubkey string) (*btcec.PublicKey, error) {
	buf, err := hex.DecodeString(pubkey)
	if err != nil || len(buf) != schnorr.PubKeyBytesLen {
		return nil, ErrInvalidPublicKey
	}
	key, err := schnorr.ParsePubKey(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}
	return key, nil
}

// PublicKeyHex returns the hex x-only public key of the given private key.
func PublicKeyHex(key *btcec.PrivateKey) string {
	return hex.EncodeToString(schnorr.SerializePubKey(key.PubKey()))
}

// GetPublicKey derives the hex x-only public key of a hex private key.
func GetPublicKey(privkey string) (string, error) {
	key, err := ParsePrivateKey(privkey)
	if err != nil {
		return "", err
	}
	return PublicKeyHex(key), nil
}
