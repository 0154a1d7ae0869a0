package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// Value holds a piece of sensitive data in cryptographically transformed
// form. Which transforms apply is data, not type: the mode mask selects
// them, and every operation dispatches on it. The plaintext, when
// recoverable at all, is cached in memory only and never persisted.
//
// Values are shared by pointer and individually lock-guarded, so rotation
// can rewrite one value while unrelated readers use others.
type Value struct {
	mu sync.RWMutex

	// data is the transformed payload.
	data []byte
	// raw is the lazily recovered plaintext. Never persisted.
	raw []byte
	// mode selects the transforms applied to data.
	mode Mode
	// salt is set when a key was derived for this value.
	salt []byte
	// relatedKeys names the state fields a dependent hash is computed
	// from, in concatenation order.
	relatedKeys []string
}

// NewValue transforms raw according to mode and returns the container.
// The transform order is fixed: hash, then hmac, then encrypt, then
// encode. Encoding wraps the ciphertext when encryption ran, and the raw
// payload otherwise; hash and MAC outputs are already textual and are
// never re-encoded. key is required for the hmac and encrypt transforms
// and ignored by the others.
func NewValue(raw []byte, mode Mode, key []byte, relatedKeys []string) (*Value, error) {
	v := &Value{
		raw:         raw,
		mode:        mode,
		relatedKeys: relatedKeys,
	}

	if mode.ShouldHash() {
		v.data = []byte(Hash(raw, nil))
	}

	if key != nil && mode.ShouldHmac() {
		salt := Salt(nil)
		tag, err := Mac(raw, key, salt)
		if err != nil {
			return nil, fmt.Errorf("mac value: %w", err)
		}
		v.data = []byte(tag)
		v.salt = salt
	}

	if key != nil && mode.ShouldEncrypt() {
		derived, err := DeriveKey(key, v.salt, KeySize)
		if err != nil {
			return nil, fmt.Errorf("derive encryption key: %w", err)
		}
		v.salt = derived.Salt

		sealed, err := Encrypt(raw, derived.Key)
		if err != nil {
			return nil, fmt.Errorf("encrypt value: %w", err)
		}
		v.data = sealed
	}

	if mode.ShouldEncode() {
		if mode.ShouldEncrypt() {
			v.data = []byte(Encode(v.data))
		} else {
			v.data = []byte(Encode(raw))
		}
	}

	return v, nil
}

// NewValueFromTagged builds a Value from a tag-prefixed plaintext string
// such as "secret:token". Untagged input is rejected.
func NewValueFromTagged(tagged string, key []byte) (*Value, error) {
	mode := ParseTag(tagged)
	if mode == 0 {
		return nil, ErrNoProtectionTag
	}
	return NewValue([]byte(StripTag(tagged)), mode, key, nil)
}

// RawData recovers the plaintext. The first successful recovery is
// cached, so repeated calls never decode or decrypt again. Pure hash or
// MAC modes hold no recoverable plaintext and return ErrNoRawData; for
// such values that is an expected outcome, not a fault.
func (v *Value) RawData(key []byte) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.raw != nil {
		return slices.Clone(v.raw), nil
	}

	var decoded []byte
	if v.mode.ShouldEncode() {
		d, err := Decode(string(v.data))
		if err != nil {
			return nil, err
		}
		decoded = d
		if !v.mode.ShouldEncrypt() {
			// Decoded ciphertext is not plaintext; only cache when
			// encoding was the last transform.
			v.raw = d
		}
	}

	if v.mode.ShouldEncrypt() && key != nil {
		if v.salt == nil {
			return nil, ErrMissingSalt
		}
		derived, err := DeriveKey(key, v.salt, KeySize)
		if err != nil {
			return nil, err
		}

		sealed := v.data
		if v.mode.ShouldEncode() {
			sealed = decoded
		}

		plaintext, err := Decrypt(sealed, derived.Key)
		if err != nil {
			return nil, err
		}
		v.raw = plaintext
	}

	if v.raw == nil {
		return nil, ErrNoRawData
	}
	return slices.Clone(v.raw), nil
}

// RawDataString recovers the plaintext as a string.
func (v *Value) RawDataString(key []byte) (string, error) {
	raw, err := v.RawData(key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Data returns a copy of the transformed payload.
func (v *Value) Data() []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.data)
}

// DataString returns the transformed payload as a string.
func (v *Value) DataString() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return string(v.data)
}

// Mode returns the protection mode mask.
func (v *Value) Mode() Mode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

// Salt returns a copy of the stored key-derivation salt, if any.
func (v *Value) Salt() []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.salt)
}

// RelatedKeys returns the field paths a dependent hash is computed from.
func (v *Value) RelatedKeys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.relatedKeys)
}

// Assign replaces the contents of v with those of other, in place, so
// every holder of the pointer observes the update.
func (v *Value) Assign(other *Value) {
	other.mu.RLock()
	data, raw, mode := other.data, other.raw, other.mode
	salt, related := other.salt, other.relatedKeys
	other.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = data
	v.raw = raw
	v.mode = mode
	v.salt = salt
	v.relatedKeys = related
}

// Equal reports structural equality over (data, mode, salt, related
// keys). The cached plaintext is deliberately excluded: two values are
// the same protected value regardless of what has been recovered so far.
func (v *Value) Equal(other *Value) bool {
	if v == other {
		return true
	}
	if v == nil || other == nil {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	return bytes.Equal(v.data, other.data) &&
		v.mode == other.mode &&
		bytes.Equal(v.salt, other.salt) &&
		slices.Equal(v.relatedKeys, other.relatedKeys)
}

// IsZero reports whether v is an untouched default value. Such values
// carry no secret yet and are skipped by rotation and counting.
func (v *Value) IsZero() bool {
	if v == nil {
		return true
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.data) == 0 && v.mode == 0 && v.salt == nil && len(v.relatedKeys) == 0
}

// String implements fmt.Stringer without exposing cached plaintext.
func (v *Value) String() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return fmt.Sprintf("Value(mode=%#08b, %d bytes)", uint8(v.mode), len(v.data))
}

// valueWire is the persisted shape of a Value. The data field is always
// human-safe text.
type valueWire struct {
	Data        string   `json:"data"`
	Mode        uint8    `json:"mode"`
	Salt        *string  `json:"salt"`
	RelatedKeys []string `json:"related_keys"`
}

// MarshalJSON serializes the value. Payloads whose mode already implies
// a textual form (encode, hash, hmac) are emitted as-is. Anything else
// gets a transparent encode pass, tagged on the wire with
// ModeEncode|ModeWireEncoded; the in-memory mode is never mutated, since
// serialization is a view, not a transform. The cached plaintext is
// never written.
func (v *Value) MarshalJSON() ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	wire := valueWire{
		Mode:        uint8(v.mode),
		RelatedKeys: v.relatedKeys,
	}
	if wire.RelatedKeys == nil {
		wire.RelatedKeys = []string{}
	}

	if v.mode.ShouldEncode() || v.mode.ShouldHash() || v.mode.ShouldHmac() {
		wire.Data = string(v.data)
	} else {
		wire.Data = Encode(v.data)
		wire.Mode = uint8(v.mode | ModeEncode | ModeWireEncoded)
	}

	if v.salt != nil {
		encoded := Encode(v.salt)
		wire.Salt = &encoded
	}

	return json.Marshal(wire)
}

// UnmarshalJSON restores a persisted value. A transparent encode pass
// applied during serialization is reversed and its marker discarded, so
// a round trip is structurally idempotent. The plaintext cache is never
// reconstructed.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire valueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	mode := Mode(wire.Mode)
	payload := []byte(wire.Data)

	if mode.WireEncoded() {
		decoded, err := Decode(wire.Data)
		if err != nil {
			return fmt.Errorf("decode wire payload: %w", err)
		}
		payload = decoded
		mode &^= ModeEncode | ModeWireEncoded
	}

	var salt []byte
	if wire.Salt != nil {
		decoded, err := Decode(*wire.Salt)
		if err != nil {
			return fmt.Errorf("decode salt: %w", err)
		}
		salt = decoded
	}

	related := wire.RelatedKeys
	if len(related) == 0 {
		related = nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = payload
	v.raw = nil
	v.mode = mode
	v.salt = salt
	v.relatedKeys = related

	return nil
}
