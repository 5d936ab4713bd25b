package nostr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// PublicKeyPrefix is the bech32 human readable part of public keys.
	PublicKeyPrefix = "npub"
	// PrivateKeyPrefix is the bech32 human readable part of private keys.
	PrivateKeyPrefix = "nsec"
)

var (
	// ErrInvalidBech32Entity ...
	ErrInvalidBech32Entity = errors.New("bech32 entity is malformed")
)

// EncodePublicKey returns the npub encoding of a hex public key.
func EncodePublicKey(pubkey string) (string, error) {
	if _, err := ParsePublicKey(pubkey); err != nil {
		return "", err
	}
	return encodeBech32(PublicKeyPrefix, pubkey)
}

// EncodePrivateKey returns the nsec encoding of a hex private key.
func EncodePrivateKey(privkey string) (string, error) {
	if _, err := ParsePrivateKey(privkey); err != nil {
		return "", err
	}
	return encodeBech32(PrivateKeyPrefix, privkey)
}

// Decode returns the prefix and the hex payload of an npub or nsec string.
func Decode(entity string) (string, string, error) {
	hrp, data, err := bech32.Decode(entity)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidBech32Entity, err)
	}
	buf, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidBech32Entity, err)
	}
	if len(buf) != 32 {
		return "", "", ErrInvalidBech32Entity
	}
	switch hrp {
	case PublicKeyPrefix, PrivateKeyPrefix:
		return hrp, hex.EncodeToString(buf), nil
	default:
		return "", "", fmt.Errorf("%w: unknown prefix %s", ErrInvalidBech32Entity, hrp)
	}
}

// NormalizePublicKey accepts either a hex or an npub public key and returns
// the hex form.
func NormalizePublicKey(pubkey string) (string, error) {
	if strings.HasPrefix(pubkey, PublicKeyPrefix+"1") {
		hrp, key, err := Decode(pubkey)
		if err != nil {
			return "", err
		}
		if hrp != PublicKeyPrefix {
			return "", ErrInvalidPublicKey
		}
		return key, nil
	}
	if _, err := ParsePublicKey(pubkey); err != nil {
		return "", err
	}
	return strings.ToLower(pubkey), nil
}

func encodeBech32(hrp, hexKey string) (string, error) {
	buf, err := hex.DecodeString(hexKey)
	if err != nil {
		return "", err
	}
	data, err := bech32.ConvertBits(buf, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, data)
}
