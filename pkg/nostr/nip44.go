package nostr

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

const (
	nip44Version       = 2
	nip44Salt          = "nip44-v2"
	nip44NonceSize     = 32
	nip44MacSize       = 32
	minPlaintextSize   = 1
	maxPlaintextSize   = 65535
	minPayloadSize     = 132
	maxPayloadSize     = 87472
	minDecodedDataSize = 99
	maxDecodedDataSize = 65603
)

var (
	// ErrUnsupportedEncryptionVersion ...
	ErrUnsupportedEncryptionVersion = errors.New("unsupported encryption version")
	// ErrInvalidPayloadSize ...
	ErrInvalidPayloadSize = errors.New("invalid payload size")
	// ErrInvalidPlaintextSize ...
	ErrInvalidPlaintextSize = fmt.Errorf(
		"plaintext size must be in range [%d, %d]", minPlaintextSize, maxPlaintextSize,
	)
	// ErrInvalidMac ...
	ErrInvalidMac = errors.New("invalid mac")
	// ErrInvalidPadding ...
	ErrInvalidPadding = errors.New("invalid padding")
)

// ConversationKey derives the symmetric key shared by the owner of privkey
// and the owner of pubkey. It is symmetric: ConversationKey(a, B) equals
// ConversationKey(b, A).
func ConversationKey(privkey *btcec.PrivateKey, pubkey *btcec.PublicKey) []byte {
	shared := btcec.GenerateSharedSecret(privkey, pubkey)
	return hkdf.Extract(sha256.New, shared, []byte(nip44Salt))
}

// ConversationKeyFromHex is ConversationKey for a hex x-only public key.
func ConversationKeyFromHex(privkey *btcec.PrivateKey, pubkey string) ([]byte, error) {
	pub, err := ParsePublicKey(pubkey)
	if err != nil {
		return nil, err
	}
	return ConversationKey(privkey, pub), nil
}

// Encrypt encrypts plaintext with a random nonce using the NIP-44 v2 scheme.
func Encrypt(plaintext string, conversationKey []byte) (string, error) {
	nonce := make([]byte, nip44NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return encryptWithNonce(plaintext, conversationKey, nonce)
}

// Decrypt opens a NIP-44 v2 payload.
func Decrypt(payload string, conversationKey []byte) (string, error) {
	if len(payload) == 0 || payload[0] == '#' {
		return "", ErrUnsupportedEncryptionVersion
	}
	if len(payload) < minPayloadSize || len(payload) > maxPayloadSize {
		return "", ErrInvalidPayloadSize
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid base64: %w", err)
	}
	if len(data) < minDecodedDataSize || len(data) > maxDecodedDataSize {
		return "", ErrInvalidPayloadSize
	}
	if data[0] != nip44Version {
		return "", ErrUnsupportedEncryptionVersion
	}

	nonce := data[1 : 1+nip44NonceSize]
	ciphertext := data[1+nip44NonceSize : len(data)-nip44MacSize]
	mac := data[len(data)-nip44MacSize:]

	chachaKey, chachaNonce, hmacKey, err := messageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}
	if !hmac.Equal(mac, hmacAAD(hmacKey, nonce, ciphertext)) {
		return "", ErrInvalidMac
	}

	padded, err := chacha(chachaKey, chachaNonce, ciphertext)
	if err != nil {
		return "", err
	}
	return unpad(padded)
}

func encryptWithNonce(plaintext string, conversationKey, nonce []byte) (string, error) {
	chachaKey, chachaNonce, hmacKey, err := messageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}
	padded, err := pad(plaintext)
	if err != nil {
		return "", err
	}
	ciphertext, err := chacha(chachaKey, chachaNonce, padded)
	if err != nil {
		return "", err
	}
	mac := hmacAAD(hmacKey, nonce, ciphertext)

	out := make([]byte, 0, 1+len(nonce)+len(ciphertext)+len(mac))
	out = append(out, nip44Version)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	out = append(out, mac...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func messageKeys(conversationKey, nonce []byte) ([]byte, []byte, []byte, error) {
	if len(conversationKey) != 32 {
		return nil, nil, nil, fmt.Errorf("invalid conversation key length")
	}
	if len(nonce) != nip44NonceSize {
		return nil, nil, nil, fmt.Errorf("invalid nonce length")
	}
	keys := make([]byte, 76)
	r := hkdf.Expand(sha256.New, conversationKey, nonce)
	if _, err := io.ReadFull(r, keys); err != nil {
		return nil, nil, nil, err
	}
	return keys[0:32], keys[32:44], keys[44:76], nil
}

func chacha(key, nonce, data []byte) ([]byte, error) {
	cipher, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.XORKeyStream(out, data)
	return out, nil
}

func hmacAAD(key, aad, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(aad)
	h.Write(message)
	return h.Sum(nil)
}

func calcPaddedLen(unpaddedLen int) int {
	if unpaddedLen <= 32 {
		return 32
	}
	nextPower := 1 << bits.Len(uint(unpaddedLen-1))
	chunk := 32
	if nextPower > 256 {
		chunk = nextPower / 8
	}
	return chunk * ((unpaddedLen-1)/chunk + 1)
}

func pad(plaintext string) ([]byte, error) {
	size := len(plaintext)
	if size < minPlaintextSize || size > maxPlaintextSize {
		return nil, ErrInvalidPlaintextSize
	}
	out := make([]byte, 2+calcPaddedLen(size))
	binary.BigEndian.PutUint16(out, uint16(size))
	copy(out[2:], plaintext)
	return out, nil
}

func unpad(padded []byte) (string, error) {
	if len(padded) < 2 {
		return "", ErrInvalidPadding
	}
	size := int(binary.BigEndian.Uint16(padded))
	if size < minPlaintextSize || len(padded) < 2+size ||
		len(padded) != 2+calcPaddedLen(size) {
		return "", ErrInvalidPadding
	}
	return string(padded[2 : 2+size]), nil
}
