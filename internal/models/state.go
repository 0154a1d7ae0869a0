package models

import (
	"fmt"

	"github.com/statevault/statevault/internal/crypto"
)

// State is the root of the persisted application state. Every protected
// value reachable from here is addressed by a stable dot-separated field
// path matching its JSON shape (e.g. "providers.0.access_token").
type State struct {
	// Password is the master-password hash. Never holds the password
	// itself.
	Password  *crypto.Value `json:"password"`
	Providers []*Provider   `json:"providers"`
	Settings  Settings      `json:"settings"`
}

// NewState creates a state protecting the given master password.
func NewState(password string) (*State, error) {
	hash, err := crypto.NewValue([]byte(password), crypto.ModePasswordHash, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &State{
		Password:  hash,
		Providers: []*Provider{},
		Settings:  defaultSettings(),
	}, nil
}

// EnsureValues replaces nil protected-value pointers with default
// containers so callers never have to nil-check. Null provider entries
// from a hand-edited or corrupt file are dropped rather than
// dereferenced; the signature check still rejects such a file. Called
// after deserialization.
func (s *State) EnsureValues() {
	if s.Password == nil {
		s.Password = &crypto.Value{}
	}
	providers := s.Providers[:0]
	for _, p := range s.Providers {
		if p == nil {
			continue
		}
		if p.AccessToken == nil {
			p.AccessToken = &crypto.Value{}
		}
		if p.RefreshToken == nil {
			p.RefreshToken = &crypto.Value{}
		}
		if p.Salt == nil {
			p.Salt = &crypto.Value{}
		}
		providers = append(providers, p)
	}
	s.Providers = providers
	if s.Settings.Security.Fingerprint == nil {
		s.Settings.Security.Fingerprint = &crypto.Value{}
	}
	if s.Settings.Security.Signature == nil {
		s.Settings.Security.Signature = &crypto.Value{}
	}
}

// ValuePaths returns the field paths of every protected value slot in
// the state, initialized or not, in traversal order.
func (s *State) ValuePaths() []string {
	paths := []string{"password"}

	for i := range s.Providers {
		paths = append(paths,
			fmt.Sprintf("providers.%d.access_token", i),
			fmt.Sprintf("providers.%d.refresh_token", i),
		)
	}

	paths = append(paths, "settings.security.fingerprint", "settings.security.signature")

	if s.Settings.Security.TwoFactor.Secret != nil {
		paths = append(paths, "settings.security.two_factor_authentication.secret")
	}

	return paths
}

// ValueAt resolves a field path to its protected value.
func (s *State) ValueAt(path string) (*crypto.Value, error) {
	switch path {
	case "password":
		return s.Password, nil
	case "settings.security.fingerprint":
		return s.Settings.Security.Fingerprint, nil
	case "settings.security.signature":
		return s.Settings.Security.Signature, nil
	case "settings.security.two_factor_authentication.secret":
		if s.Settings.Security.TwoFactor.Secret == nil {
			return nil, fmt.Errorf("%w: %s", ErrValueNotFound, path)
		}
		return s.Settings.Security.TwoFactor.Secret, nil
	}

	var index int
	var field string
	if _, err := fmt.Sscanf(path, "providers.%d.%s", &index, &field); err == nil {
		if index < 0 || index >= len(s.Providers) || s.Providers[index] == nil {
			return nil, fmt.Errorf("%w: %s", ErrValueNotFound, path)
		}
		switch field {
		case "access_token":
			return s.Providers[index].AccessToken, nil
		case "refresh_token":
			return s.Providers[index].RefreshToken, nil
		case "salt":
			return s.Providers[index].Salt, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrValueNotFound, path)
}

// Visit calls fn for every initialized protected value, in traversal
// order. Untouched default containers are skipped: they carry no secret
// yet. A non-nil error from fn stops the walk.
func (s *State) Visit(fn func(path string, v *crypto.Value) error) error {
	for _, path := range s.ValuePaths() {
		v, err := s.ValueAt(path)
		if err != nil {
			return err
		}
		if v.IsZero() {
			continue
		}
		if err := fn(path, v); err != nil {
			return err
		}
	}
	return nil
}

// CountInitialized returns the number of protected values holding data.
func (s *State) CountInitialized() int {
	count := 0
	_ = s.Visit(func(string, *crypto.Value) error {
		count++
		return nil
	})
	return count
}
