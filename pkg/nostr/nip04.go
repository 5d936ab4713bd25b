package nostr

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

var (
	// ErrInvalidDirectMessage ...
	ErrInvalidDirectMessage = errors.New(
		"direct message content must be in the form <base64>?iv=<base64>",
	)
)

// EncryptDirectMessage encrypts a legacy (NIP-04) direct message with AES-256
// in CBC mode, keyed by the ECDH shared point.
func EncryptDirectMessage(
	message string, privkey *btcec.PrivateKey, pubkey *btcec.PublicKey,
) (string, error) {
	key := btcec.GenerateSharedSecret(privkey, pubkey)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	plaintext := pkcs7Pad([]byte(message), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return base64.StdEncoding.EncodeToString(ciphertext) + "?iv=" +
		base64.StdEncoding.EncodeToString(iv), nil
}

// DecryptDirectMessage opens a legacy (NIP-04) direct message.
func DecryptDirectMessage(
	content string, privkey *btcec.PrivateKey, pubkey *btcec.PublicKey,
) (string, error) {
	parts := strings.Split(content, "?iv=")
	if len(parts) != 2 {
		return "", ErrInvalidDirectMessage
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidDirectMessage
	}
	iv, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrInvalidDirectMessage
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrInvalidDirectMessage
	}

	key := btcec.GenerateSharedSecret(privkey, pubkey)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-padding], nil
}
