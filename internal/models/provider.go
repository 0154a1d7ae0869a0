package models

import (
	"fmt"

	"github.com/statevault/statevault/internal/crypto"
)

// ProviderKind identifies a storage provider.
type ProviderKind string

const (
	ProviderUnrecognized ProviderKind = "unrecognized"
	ProviderGoogle       ProviderKind = "google"
	ProviderDropbox      ProviderKind = "dropbox"
	ProviderOneDrive     ProviderKind = "onedrive"
	ProviderTerabox      ProviderKind = "terabox"
)

// ParseProviderKind validates a provider name.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(s) {
	case ProviderGoogle, ProviderDropbox, ProviderOneDrive, ProviderTerabox:
		return ProviderKind(s), nil
	}
	return ProviderUnrecognized, fmt.Errorf("%q is not a valid provider", s)
}

// Provider holds the credentials for one storage provider account. Both
// tokens are protected values; Salt keeps the encode-only record of the
// key-derivation salt shared by the two tokens.
type Provider struct {
	AccessToken  *crypto.Value `json:"access_token"`
	RefreshToken *crypto.Value `json:"refresh_token"`
	Expiry       int64         `json:"expiry"`
	Owner        string        `json:"owner"`
	Kind         ProviderKind  `json:"provider"`
	Salt         *crypto.Value `json:"salt"`
}

// NewProvider protects tagged access and refresh tokens under keys
// derived from password; each token derives with its own salt, so both
// stay recoverable from the master password alone. The tokens carry
// their protection tag ("secret:", "encode:", ...) exactly as entered
// by the caller.
func NewProvider(owner string, kind ProviderKind, accessTagged, refreshTagged string, password []byte, expiry int64) (*Provider, error) {
	access, err := crypto.NewValueFromTagged(accessTagged, password)
	if err != nil {
		return nil, fmt.Errorf("protect access token: %w", err)
	}

	refresh, err := crypto.NewValueFromTagged(refreshTagged, password)
	if err != nil {
		return nil, fmt.Errorf("protect refresh token: %w", err)
	}

	salt, err := crypto.NewValue(access.Salt(), crypto.ModeEncode, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("record provider salt: %w", err)
	}

	return &Provider{
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       expiry,
		Owner:        owner,
		Kind:         kind,
		Salt:         salt,
	}, nil
}
