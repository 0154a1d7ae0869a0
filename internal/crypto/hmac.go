package crypto

import (
	"crypto/hmac"

	"golang.org/x/crypto/sha3"
)

// MacKeySize is the length of the key derived for keyed MACs.
const MacKeySize = 64

// Mac computes an HMAC-SHA3-512 tag over data‖salt. The MAC key is not
// used directly: a MacKeySize key is first derived from key and salt, so
// any password-grade input is acceptable. The result is tag‖salt, encoded.
func Mac(data, key, salt []byte) (string, error) {
	salt = Salt(salt)

	derived, err := DeriveKey(key, salt, MacKeySize)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha3.New512, derived.Key)
	mac.Write(data)
	mac.Write(salt)
	tag := mac.Sum(nil)

	return Encode(append(tag, salt...)), nil
}

// VerifyMac reports whether tag is a valid Mac output for data under key.
// The embedded salt is used to re-derive the MAC key, and the comparison
// is constant time. Any decode or derivation failure yields false.
func VerifyMac(data, key []byte, tag string) bool {
	blob, err := Decode(tag)
	if err != nil || len(blob) < DigestSize {
		return false
	}

	salt := blob[DigestSize:]
	want := blob[:DigestSize]

	derived, err := DeriveKey(key, salt, MacKeySize)
	if err != nil {
		return false
	}

	mac := hmac.New(sha3.New512, derived.Key)
	mac.Write(data)
	mac.Write(salt)

	return hmac.Equal(want, mac.Sum(nil))
}
