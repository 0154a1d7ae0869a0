package rotation_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevault/statevault/internal/crypto"
	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
	"github.com/statevault/statevault/internal/services/rotation"
	"github.com/statevault/statevault/internal/services/session"
	"github.com/statevault/statevault/internal/state"
)

const (
	oldPassword = "old master password"
	newPassword = "new master password"
)

func newTestLogger() *events.Logger {
	return events.NewTestLogger(events.ErrorLevel, "text", os.Stderr)
}

func newEngine(t *testing.T) (*rotation.Engine, state.Store, *session.Session) {
	t.Helper()
	store, err := state.NewJSONStore(filepath.Join(t.TempDir(), "state.json"), 0, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sess := session.New(newTestLogger())
	return rotation.NewEngine(store, sess, 0, newTestLogger()), store, sess
}

// renderedInput reassembles the plaintext a dependent hash covers, the
// same way rotation does: each related field resolved against the
// serialized state, strings bare, everything else as JSON, joined by
// newlines.
func renderedInput(t *testing.T, st *models.State, keys []string) []byte {
	t.Helper()
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	var doc any
	require.NoError(t, json.Unmarshal(raw, &doc))

	var out []byte
	for i, key := range keys {
		node, ok := models.LookupJSON(doc, key)
		require.True(t, ok, "related key %s", key)
		if i > 0 {
			out = append(out, '\n')
		}
		if s, isString := node.(string); isString {
			out = append(out, s...)
			continue
		}
		rendered, err := json.Marshal(node)
		require.NoError(t, err)
		out = append(out, rendered...)
	}
	return out
}

func TestRotate(t *testing.T) {
	st, err := models.NewState(oldPassword)
	require.NoError(t, err)

	provider, err := models.NewProvider("user@example.com", models.ProviderGoogle,
		"secret:access-token", "secret:refresh-token", []byte(oldPassword), 0)
	require.NoError(t, err)
	st.Providers = append(st.Providers, provider)

	fingerprintKeys := []string{"providers.0.owner", "settings.theme.theme"}
	fingerprint, err := crypto.NewValue(
		renderedInput(t, st, fingerprintKeys), crypto.ModeHash, nil, fingerprintKeys)
	require.NoError(t, err)
	st.Settings.Security.Fingerprint.Assign(fingerprint)

	engine, store, sess := newEngine(t)
	require.NoError(t, engine.Rotate(context.Background(), st, oldPassword, newPassword))

	// The password hash now holds the new password.
	assert.True(t, crypto.Verify([]byte(newPassword), st.Password.DataString()))
	assert.False(t, crypto.Verify([]byte(oldPassword), st.Password.DataString()))

	// Encrypted values are recoverable under the new password only.
	access, err := st.Providers[0].AccessToken.RawDataString([]byte(newPassword))
	require.NoError(t, err)
	assert.Equal(t, "access-token", access)

	// The dependent hash was recomputed and still matches its inputs.
	assert.True(t, crypto.Verify(
		renderedInput(t, st, fingerprintKeys),
		st.Settings.Security.Fingerprint.DataString()))

	// The session moved to the new password and the saved state loads
	// with it.
	assert.True(t, sess.CheckPassword(newPassword))
	loaded, err := store.Load(newPassword)
	require.NoError(t, err)
	assert.True(t, st.Password.Equal(loaded.Password))

	_, err = store.Load(oldPassword)
	assert.ErrorIs(t, err, models.ErrInvalidPassword)
}

func TestRotateEvents(t *testing.T) {
	st, err := models.NewState(oldPassword)
	require.NoError(t, err)

	provider, err := models.NewProvider("user@example.com", models.ProviderDropbox,
		"secret:access", "secret:refresh", []byte(oldPassword), 0)
	require.NoError(t, err)
	st.Providers = append(st.Providers, provider)

	engine, _, _ := newEngine(t)
	require.NoError(t, engine.Rotate(context.Background(), st, oldPassword, newPassword))

	var got []rotation.Event
	for len(engine.Events()) > 0 {
		got = append(got, <-engine.Events())
	}

	require.NotEmpty(t, got)
	assert.Equal(t, rotation.EventInitialized, got[0].Type)
	assert.Equal(t, 3, got[0].Steps, "password plus two tokens")
	assert.Equal(t, rotation.EventCompleted, got[len(got)-1].Type)

	var paths []string
	for _, ev := range got {
		if ev.Type == rotation.EventStepCompleted {
			paths = append(paths, ev.Path)
		}
	}
	assert.Equal(t, []string{
		"password",
		"providers.0.access_token",
		"providers.0.refresh_token",
	}, paths)
}

func TestRotateKeyedDigestValues(t *testing.T) {
	t.Run("reloaded state", func(t *testing.T) {
		st, err := models.NewState(oldPassword)
		require.NoError(t, err)

		provider, err := models.NewProvider("user@example.com", models.ProviderGoogle,
			"hmac:access-token", "secret:refresh-token", []byte(oldPassword), 0)
		require.NoError(t, err)
		st.Providers = append(st.Providers, provider)

		engine, store, _ := newEngine(t)
		require.NoError(t, store.Save(st, oldPassword))

		// Reloading drops the plaintext the constructor cached, so the
		// keyed digest cannot be recomputed. Rotation must still finish.
		loaded, err := store.Load(oldPassword)
		require.NoError(t, err)
		require.NoError(t, engine.Rotate(context.Background(), loaded, oldPassword, newPassword))

		assert.True(t, crypto.Verify([]byte(newPassword), loaded.Password.DataString()))
		refresh, err := loaded.Providers[0].RefreshToken.RawDataString([]byte(newPassword))
		require.NoError(t, err)
		assert.Equal(t, "refresh-token", refresh)

		// The digest stays verifiable under the key it was minted with.
		assert.True(t, crypto.VerifyMac([]byte("access-token"), []byte(oldPassword),
			loaded.Providers[0].AccessToken.DataString()))

		// And the rotated state saves and loads under the new password.
		reloaded, err := store.Load(newPassword)
		require.NoError(t, err)
		assert.True(t, loaded.Password.Equal(reloaded.Password))
	})

	t.Run("in-memory state", func(t *testing.T) {
		st, err := models.NewState(oldPassword)
		require.NoError(t, err)

		provider, err := models.NewProvider("user@example.com", models.ProviderGoogle,
			"hmac:access-token", "secret:refresh-token", []byte(oldPassword), 0)
		require.NoError(t, err)
		st.Providers = append(st.Providers, provider)

		// The constructor cache is still warm, so the digest is re-keyed.
		engine, _, _ := newEngine(t)
		require.NoError(t, engine.Rotate(context.Background(), st, oldPassword, newPassword))

		assert.True(t, crypto.VerifyMac([]byte("access-token"), []byte(newPassword),
			st.Providers[0].AccessToken.DataString()))
		assert.False(t, crypto.VerifyMac([]byte("access-token"), []byte(oldPassword),
			st.Providers[0].AccessToken.DataString()))
	})
}

func TestRotateDependencyOrder(t *testing.T) {
	st, err := models.NewState(oldPassword)
	require.NoError(t, err)

	provider, err := models.NewProvider("user@example.com", models.ProviderOneDrive,
		"secret:access", "secret:refresh", []byte(oldPassword), 0)
	require.NoError(t, err)
	st.Providers = append(st.Providers, provider)

	// The fingerprint depends on the provider owner; the access token is
	// replaced by a hash that depends on the fingerprint. Traversal order
	// visits the access token first, so settling it requires deferring
	// until the fingerprint is recomputed.
	fingerprintKeys := []string{"providers.0.owner"}
	fingerprint, err := crypto.NewValue(
		renderedInput(t, st, fingerprintKeys), crypto.ModeHash, nil, fingerprintKeys)
	require.NoError(t, err)
	st.Settings.Security.Fingerprint.Assign(fingerprint)

	chainedKeys := []string{"settings.security.fingerprint"}
	chained, err := crypto.NewValue(
		renderedInput(t, st, chainedKeys), crypto.ModeHash, nil, chainedKeys)
	require.NoError(t, err)
	st.Providers[0].AccessToken.Assign(chained)

	engine, _, _ := newEngine(t)
	require.NoError(t, engine.Rotate(context.Background(), st, oldPassword, newPassword))

	assert.True(t, crypto.Verify(
		renderedInput(t, st, fingerprintKeys),
		st.Settings.Security.Fingerprint.DataString()))
	assert.True(t, crypto.Verify(
		renderedInput(t, st, chainedKeys),
		st.Providers[0].AccessToken.DataString()),
		"chained hash must cover the recomputed fingerprint")
}

func TestRotateDependencyCycle(t *testing.T) {
	st, err := models.NewState(oldPassword)
	require.NoError(t, err)

	// A dependent hash naming itself can never settle.
	keys := []string{"settings.security.fingerprint"}
	fingerprint, err := crypto.NewValue([]byte("seed"), crypto.ModeHash, nil, keys)
	require.NoError(t, err)
	st.Settings.Security.Fingerprint.Assign(fingerprint)

	engine, _, _ := newEngine(t)
	err = engine.Rotate(context.Background(), st, oldPassword, newPassword)
	assert.ErrorIs(t, err, models.ErrDependencyCycle)

	var rotErr *models.RotationError
	require.ErrorAs(t, err, &rotErr)
	assert.Equal(t, "dependent-hash", rotErr.Phase)
}

func TestRotateWrongOldPassword(t *testing.T) {
	st, err := models.NewState(oldPassword)
	require.NoError(t, err)

	engine, _, _ := newEngine(t)
	err = engine.Rotate(context.Background(), st, "not the password", newPassword)
	assert.ErrorIs(t, err, models.ErrInvalidPassword)

	var rotErr *models.RotationError
	require.ErrorAs(t, err, &rotErr)
	assert.Equal(t, "verify", rotErr.Phase)

	// Nothing was touched.
	assert.True(t, crypto.Verify([]byte(oldPassword), st.Password.DataString()))
}

func TestRotateCancelled(t *testing.T) {
	st, err := models.NewState(oldPassword)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, _, _ := newEngine(t)
	err = engine.Rotate(ctx, st, oldPassword, newPassword)
	assert.ErrorIs(t, err, context.Canceled)
}
