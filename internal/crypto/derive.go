package crypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

// deriveLabel is the fixed single-byte HKDF context label. Changing it
// invalidates every persisted ciphertext and MAC.
var deriveLabel = []byte{0}

// DerivedKey is a symmetric key expanded from a password and a salt.
// Only the salt may be persisted; the key is re-derived on demand.
type DerivedKey struct {
	// Key is the derived key material. Never persisted.
	Key []byte `json:"-"`
	// Salt is the salt the key was derived with.
	Salt []byte `json:"salt"`
}

// DeriveKey expands password into length key bytes using HKDF-SHA3-512
// keyed by salt. The password text is NFKC-normalized first so visually
// identical inputs derive identical keys. Identical password, salt, and
// length always produce the same key; that determinism is what allows
// decryption and MAC verification without persisting key material.
func DeriveKey(password, salt []byte, length int) (*DerivedKey, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if length <= 0 {
		return nil, ErrInvalidKeyLength
	}

	salt = Salt(salt)
	ikm := norm.NFKC.Bytes(password)

	key := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha3.New512, ikm, salt, deriveLabel), key); err != nil {
		return nil, fmt.Errorf("expand key: %w", err)
	}

	return &DerivedKey{Key: key, Salt: salt}, nil
}

// Restore re-derives the key from password using the stored salt.
func (k *DerivedKey) Restore(password []byte, length int) error {
	derived, err := DeriveKey(password, k.Salt, length)
	if err != nil {
		return err
	}
	k.Key = derived.Key
	return nil
}
