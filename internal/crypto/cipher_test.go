package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevault/statevault/internal/crypto"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	derived, err := crypto.DeriveKey([]byte("supersecretkey"), nil, crypto.KeySize)
	require.NoError(t, err)
	return derived.Key
}

func TestEncryptDecrypt(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("the token nobody should read")

	sealed, err := crypto.Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), string(plaintext))

	opened, err := crypto.Decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestEncryptNonceUniqueness(t *testing.T) {
	key := testKey(t)

	a, err := crypto.Encrypt([]byte("same"), key)
	require.NoError(t, err)
	b, err := crypto.Encrypt([]byte("same"), key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "fresh nonce per encryption")
}

func TestEncryptBadKeyLength(t *testing.T) {
	_, err := crypto.Encrypt([]byte("data"), []byte("short"))
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)

	_, err = crypto.Decrypt(make([]byte, crypto.NonceSize+16), []byte("short"))
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
}

func TestDecryptTruncated(t *testing.T) {
	key := testKey(t)

	_, err := crypto.Decrypt(nil, key)
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)

	_, err = crypto.Decrypt(make([]byte, crypto.NonceSize), key)
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
}

func TestDecryptTampered(t *testing.T) {
	key := testKey(t)

	sealed, err := crypto.Encrypt([]byte("data"), key)
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = crypto.Decrypt(sealed, key)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestDecryptWrongKey(t *testing.T) {
	key := testKey(t)
	other, err := crypto.DeriveKey([]byte("another password"), nil, crypto.KeySize)
	require.NoError(t, err)

	sealed, err := crypto.Encrypt([]byte("data"), key)
	require.NoError(t, err)

	_, err = crypto.Decrypt(sealed, other.Key)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}
