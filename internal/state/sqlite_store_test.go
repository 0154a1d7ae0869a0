package state_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevault/statevault/internal/models"
	"github.com/statevault/statevault/internal/state"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := state.NewSQLiteStore(path, newTestLogger())
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.Exists())

	st := newTestState(t, "master password")
	require.NoError(t, store.Save(st, "master password"))
	assert.True(t, store.Exists())

	loaded, err := store.Load("master password")
	require.NoError(t, err)
	assert.True(t, st.Password.Equal(loaded.Password))
	require.Len(t, loaded.Providers, 1)
}

func TestSQLiteStoreLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := state.NewSQLiteStore(path, newTestLogger())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load("whatever")
	assert.ErrorIs(t, err, models.ErrStateNotFound)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := state.NewSQLiteStore(path, newTestLogger())
	require.NoError(t, err)
	defer store.Close()

	st := newTestState(t, "master password")
	require.NoError(t, store.Save(st, "master password"))

	provider, err := models.NewProvider("second@example.com", models.ProviderDropbox,
		"secret:access2", "secret:refresh2", []byte("master password"), 0)
	require.NoError(t, err)
	st.Providers = append(st.Providers, provider)
	require.NoError(t, store.Save(st, "master password"))

	loaded, err := store.Load("master password")
	require.NoError(t, err)
	assert.Len(t, loaded.Providers, 2, "save replaces the single state row")
}

func TestSQLiteStoreWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := state.NewSQLiteStore(path, newTestLogger())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(newTestState(t, "right password"), "right password"))

	_, err = store.Load("wrong password")
	assert.ErrorIs(t, err, models.ErrInvalidPassword)
}
