package state

import (
	"encoding/json"
	"fmt"

	"github.com/statevault/statevault/internal/crypto"
	"github.com/statevault/statevault/internal/models"
)

// Store manages persistence of the application state. Implementations
// only move byte strings; signing and verification happen here at the
// boundary so every backend enforces the same contract.
type Store interface {
	// Exists reports whether a persisted state is present.
	Exists() bool

	// Load reads, authenticates, and deserializes the state. The
	// password is checked against the stored hash and the integrity
	// signature before the state is returned.
	Load(password string) (*models.State, error)

	// Save signs the state under password and persists it.
	Save(st *models.State, password string) error

	// Close releases resources and flushes pending writes.
	Close() error
}

// encodeState signs st and returns its serialized form.
func encodeState(st *models.State, password string) ([]byte, error) {
	if err := Sign(st, []byte(password)); err != nil {
		return nil, err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	return data, nil
}

// decodeState deserializes raw and authenticates it: first the password
// against the stored hash, then the whole-state signature. Either
// failure blocks access to the state.
func decodeState(raw []byte, password string) (*models.State, error) {
	st := &models.State{}
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	st.EnsureValues()

	if !crypto.Verify([]byte(password), st.Password.DataString()) {
		return nil, models.ErrInvalidPassword
	}

	if err := Check(st, []byte(password)); err != nil {
		return nil, err
	}

	return st, nil
}
