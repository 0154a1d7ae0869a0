package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
)

// JSONStore persists the state as a single JSON file, written atomically
// via a temp file and rename. File permissions are owner-only: the
// content is signed, but there is no reason to share it.
type JSONStore struct {
	path   string
	logger *events.Logger
	saver  *DebouncedSaver

	mu sync.Mutex
}

// NewJSONStore creates a JSON file store at path. saveDelay > 0 enables
// debounced writes.
func NewJSONStore(path string, saveDelay time.Duration, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	s := &JSONStore{
		path:   path,
		logger: logger.WithField("component", "json_state_store"),
	}
	s.saver = NewDebouncedSaver(saveDelay, s.writeFile, logger)
	return s, nil
}

// Exists implements Store.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load implements Store.
func (s *JSONStore) Load(password string) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithField("path", s.path).Debug("Loading state")

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, models.ErrStateNotFound
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st, err := decodeState(raw, password)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("values", st.CountInitialized()).Debug("State loaded")
	return st, nil
}

// Save implements Store.
func (s *JSONStore) Save(st *models.State, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeState(st, password)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"path":  s.path,
		"bytes": len(data),
	}).Debug("Saving state")

	return s.saver.Save(data)
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return s.saver.Flush()
}

func (s *JSONStore) writeFile(data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
