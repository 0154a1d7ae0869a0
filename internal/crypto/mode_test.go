package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/statevault/statevault/internal/crypto"
)

func TestModePredicates(t *testing.T) {
	tests := []struct {
		name    string
		mode    crypto.Mode
		hash    bool
		encode  bool
		encrypt bool
		hmac    bool
	}{
		{"hash", crypto.ModeHash, true, false, false, false},
		{"encode", crypto.ModeEncode, false, true, false, false},
		{"encrypt", crypto.ModeEncrypt, false, false, true, false},
		{"hmac", crypto.ModeHmac, false, false, false, true},
		{"secret", crypto.ModeEncrypt | crypto.ModeEncode, false, true, true, false},
		{"password hash", crypto.ModePasswordHash, true, false, false, false},
		{"signature hash", crypto.ModeSignatureHash, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hash, tt.mode.ShouldHash())
			assert.Equal(t, tt.encode, tt.mode.ShouldEncode())
			assert.Equal(t, tt.encrypt, tt.mode.ShouldEncrypt())
			assert.Equal(t, tt.hmac, tt.mode.ShouldHmac())
		})
	}
}

func TestModeMarkers(t *testing.T) {
	assert.True(t, crypto.ModePasswordHash.IsPasswordHash())
	assert.False(t, crypto.ModeHash.IsPasswordHash())

	assert.True(t, crypto.ModeSignatureHash.IsSignatureHash())
	assert.False(t, crypto.ModeHmac.IsSignatureHash())

	assert.True(t, (crypto.ModeEncrypt | crypto.ModeWireEncoded).WireEncoded())
	assert.False(t, crypto.ModeEncrypt.WireEncoded())
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		input string
		want  crypto.Mode
	}{
		{"hash:value", crypto.ModeHash},
		{"hmac:value", crypto.ModeHmac},
		{"encode:value", crypto.ModeEncode},
		{"secret:value", crypto.ModeEncrypt | crypto.ModeEncode},
		{"plain value", 0},
		{"", 0},
		{"hashvalue", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, crypto.ParseTag(tt.input))
		})
	}
}

func TestStripTag(t *testing.T) {
	assert.Equal(t, "value", crypto.StripTag("secret:value"))
	assert.Equal(t, "value", crypto.StripTag("hash:value"))
	assert.Equal(t, "plain", crypto.StripTag("plain"))
	assert.Equal(t, "a:b", crypto.StripTag("secret:a:b"))
}
