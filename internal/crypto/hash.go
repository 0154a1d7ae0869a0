package crypto

import (
	"bytes"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the length of a SHA3-512 digest in bytes.
const DigestSize = 64

// Hash computes the SHA3-512 digest of data‖salt and returns
// digest‖salt as one encoded string. A nil salt is replaced by a
// random DefaultSaltSize salt.
func Hash(data, salt []byte) string {
	salt = Salt(salt)

	h := sha3.New512()
	h.Write(data)
	h.Write(salt)
	sum := h.Sum(nil)

	return Encode(append(sum, salt...))
}

// Verify reports whether hash is a valid Hash output for data. It never
// fails hard: malformed or truncated input simply yields false.
func Verify(data []byte, hash string) bool {
	blob, err := Decode(hash)
	if err != nil || len(blob) < DigestSize {
		return false
	}

	salt := blob[DigestSize:]
	want := blob[:DigestSize]

	h := sha3.New512()
	h.Write(data)
	h.Write(salt)

	return bytes.Equal(want, h.Sum(nil))
}
