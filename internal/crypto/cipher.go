package crypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the XChaCha20-Poly1305 key length.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the XChaCha20-Poly1305 extended nonce length.
	NonceSize = chacha20poly1305.NonceSizeX
)

// Encrypt seals data with XChaCha20-Poly1305 under a fresh random nonce.
// Returns: nonce || ciphertext+tag.
func Encrypt(data, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := SaltN(nil, NonceSize)
	sealed := aead.Seal(nil, nonce, data, nil)

	return append(nonce, sealed...), nil
}

// Decrypt opens a blob produced by Encrypt. A wrong key, truncated input,
// or tampered ciphertext is reported as an error, never a panic.
func Decrypt(data, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if len(data) <= NonceSize {
		return nil, ErrInvalidCiphertext
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
