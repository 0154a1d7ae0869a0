package crypto

import "strings"

// Mode is a bit-flag set describing which transforms apply to a Value.
// The composite flags carry a marker bit on top of a base transform so a
// value can record why it is hashed, not just that it is: masking a
// composite with its base flag is always nonzero.
type Mode uint8

const (
	// ModeHash hashes the data (SHA3-512, salted).
	ModeHash Mode = 0b0000_0001
	// ModeEncode base64-encodes the data.
	ModeEncode Mode = 0b0000_0010
	// ModeEncrypt encrypts the data (XChaCha20-Poly1305).
	ModeEncrypt Mode = 0b0000_0100
	// ModeHmac computes a keyed MAC over the data.
	ModeHmac Mode = 0b0000_1000

	// ModePasswordHash marks the one hash holding the master password.
	ModePasswordHash Mode = 0b0001_0001
	// ModeSignatureHash marks the one MAC signing the whole state.
	ModeSignatureHash Mode = 0b0010_1000

	// ModeWireEncoded marks data that was transparently encoded during
	// serialization. It only ever appears on the wire.
	ModeWireEncoded Mode = 0b1000_0000
)

// Tag prefixes for caller-supplied plaintext.
const (
	tagHash   = "hash:"
	tagHmac   = "hmac:"
	tagEncode = "encode:"
	tagSecret = "secret:"
)

// Has reports whether every bit of flag is set in m.
func (m Mode) Has(flag Mode) bool { return m&flag == flag }

// ShouldHash reports whether the hash transform applies.
func (m Mode) ShouldHash() bool { return m.Has(ModeHash) }

// ShouldEncode reports whether the encode transform applies.
func (m Mode) ShouldEncode() bool { return m.Has(ModeEncode) }

// ShouldEncrypt reports whether the encrypt transform applies.
func (m Mode) ShouldEncrypt() bool { return m.Has(ModeEncrypt) }

// ShouldHmac reports whether the keyed-MAC transform applies.
func (m Mode) ShouldHmac() bool { return m.Has(ModeHmac) }

// IsPasswordHash reports whether m marks the master-password hash.
func (m Mode) IsPasswordHash() bool { return m.Has(ModePasswordHash) }

// IsSignatureHash reports whether m marks the state signature.
func (m Mode) IsSignatureHash() bool { return m.Has(ModeSignatureHash) }

// WireEncoded reports whether the serializer applied an extra encode pass.
func (m Mode) WireEncoded() bool { return m.Has(ModeWireEncoded) }

// ParseTag maps a tagged plaintext string to its protection mode:
//
//	"hash:v"   -> ModeHash
//	"hmac:v"   -> ModeHmac
//	"encode:v" -> ModeEncode
//	"secret:v" -> ModeEncrypt|ModeEncode
//
// Untagged strings carry no implied mode (zero).
func ParseTag(s string) Mode {
	switch {
	case strings.HasPrefix(s, tagHash):
		return ModeHash
	case strings.HasPrefix(s, tagHmac):
		return ModeHmac
	case strings.HasPrefix(s, tagEncode):
		return ModeEncode
	case strings.HasPrefix(s, tagSecret):
		return ModeEncrypt | ModeEncode
	}
	return 0
}

// StripTag removes a recognized protection tag prefix, if any.
func StripTag(s string) string {
	for _, tag := range []string{tagHash, tagHmac, tagEncode, tagSecret} {
		if strings.HasPrefix(s, tag) {
			return strings.TrimPrefix(s, tag)
		}
	}
	return s
}
