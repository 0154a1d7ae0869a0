package session

import (
	"sync"

	"github.com/statevault/statevault/internal/crypto"
	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
)

// Session holds the password of an unlocked state for the lifetime of a
// process. Values derived from the password (decrypted secrets, MAC
// keys) are never cached here; every caller re-derives from the
// password it fetches.
type Session struct {
	mu       sync.RWMutex
	password []byte
	unlocked bool
	logger   *events.Logger
}

// New creates a locked session.
func New(logger *events.Logger) *Session {
	return &Session{
		logger: logger.WithField("component", "session"),
	}
}

// Unlock verifies password against the state's stored password hash and,
// on success, retains it for later key derivation.
func (s *Session) Unlock(st *models.State, password string) error {
	if st.Password.IsZero() || !crypto.Verify([]byte(password), st.Password.DataString()) {
		s.logger.Warn("Unlock rejected")
		return models.ErrInvalidPassword
	}

	s.mu.Lock()
	s.password = []byte(password)
	s.unlocked = true
	s.mu.Unlock()

	s.logger.Info("Session unlocked")
	return nil
}

// Password returns the session password. Fails when locked.
func (s *Session) Password() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.unlocked {
		return nil, models.ErrNotUnlocked
	}
	out := make([]byte, len(s.password))
	copy(out, s.password)
	return out, nil
}

// CheckPassword reports whether candidate matches the session password.
func (s *Session) CheckPassword(candidate string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked && string(s.password) == candidate
}

// SetPassword replaces the session password, e.g. after a rotation.
func (s *Session) SetPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = []byte(password)
	s.unlocked = true
}

// Unlocked reports whether the session holds a password.
func (s *Session) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked
}

// Lock discards the session password.
func (s *Session) Lock() {
	s.mu.Lock()
	for i := range s.password {
		s.password[i] = 0
	}
	s.password = nil
	s.unlocked = false
	s.mu.Unlock()

	s.logger.Info("Session locked")
}
