package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevault/statevault/internal/crypto"
)

func TestDeriveKey(t *testing.T) {
	derived, err := crypto.DeriveKey([]byte("password"), nil, crypto.KeySize)
	require.NoError(t, err)

	assert.Len(t, derived.Key, crypto.KeySize)
	assert.Len(t, derived.Salt, crypto.DefaultSaltSize)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	first, err := crypto.DeriveKey([]byte("password"), nil, crypto.KeySize)
	require.NoError(t, err)

	second, err := crypto.DeriveKey([]byte("password"), first.Salt, crypto.KeySize)
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
}

func TestDeriveKeySaltSeparation(t *testing.T) {
	a, err := crypto.DeriveKey([]byte("password"), nil, crypto.KeySize)
	require.NoError(t, err)
	b, err := crypto.DeriveKey([]byte("password"), nil, crypto.KeySize)
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key, "different salts must give different keys")
}

func TestDeriveKeyNormalizesPassword(t *testing.T) {
	salt := crypto.Salt(nil)

	// "Å" as a single code point and as A plus a combining ring
	// are the same password after NFKC normalization.
	composed, err := crypto.DeriveKey([]byte("Ångström"), salt, crypto.KeySize)
	require.NoError(t, err)
	decomposed, err := crypto.DeriveKey([]byte("Ångström"), salt, crypto.KeySize)
	require.NoError(t, err)

	assert.Equal(t, composed.Key, decomposed.Key)
}

func TestDeriveKeyValidation(t *testing.T) {
	_, err := crypto.DeriveKey(nil, nil, crypto.KeySize)
	assert.ErrorIs(t, err, crypto.ErrEmptyPassword)

	_, err = crypto.DeriveKey([]byte{}, nil, crypto.KeySize)
	assert.ErrorIs(t, err, crypto.ErrEmptyPassword)

	_, err = crypto.DeriveKey([]byte("password"), nil, 0)
	assert.ErrorIs(t, err, crypto.ErrInvalidKeyLength)

	_, err = crypto.DeriveKey([]byte("password"), nil, -1)
	assert.ErrorIs(t, err, crypto.ErrInvalidKeyLength)
}

func TestDeriveKeyVariableLength(t *testing.T) {
	for _, length := range []int{16, crypto.KeySize, crypto.MacKeySize, 128} {
		derived, err := crypto.DeriveKey([]byte("password"), nil, length)
		require.NoError(t, err)
		assert.Len(t, derived.Key, length)
	}
}

func TestDerivedKeyRestore(t *testing.T) {
	original, err := crypto.DeriveKey([]byte("password"), nil, crypto.KeySize)
	require.NoError(t, err)

	restored := &crypto.DerivedKey{Salt: original.Salt}
	require.NoError(t, restored.Restore([]byte("password"), crypto.KeySize))
	assert.Equal(t, original.Key, restored.Key)
}
