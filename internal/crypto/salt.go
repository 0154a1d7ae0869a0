package crypto

import "crypto/rand"

// DefaultSaltSize is the salt length used for hashing and key derivation.
const DefaultSaltSize = 32

// Salt returns the provided salt unchanged, or a fresh random salt of
// DefaultSaltSize bytes when none is given.
func Salt(existing []byte) []byte {
	if existing != nil {
		return existing
	}
	return randomBytes(DefaultSaltSize)
}

// SaltN returns the provided salt when it has exactly the requested length,
// otherwise a fresh random salt of that length. Nonces use this so a stale
// or truncated value can never be reused.
func SaltN(existing []byte, length int) []byte {
	if len(existing) == length {
		return existing
	}
	return randomBytes(length)
}

func randomBytes(length int) []byte {
	b := make([]byte, length)
	// crypto/rand.Read never returns an error as of Go 1.24.
	_, _ = rand.Read(b)
	return b
}
