package models

import "github.com/statevault/statevault/internal/crypto"

// Settings groups the user-facing application settings. Only Security
// carries cryptographic meaning; the rest are plain data shapes.
type Settings struct {
	GeneralBehaviour GeneralBehaviour `json:"general_behaviour"`
	Theme            ThemeSettings    `json:"theme"`
	Security         Security         `json:"security"`
}

// GeneralBehaviour holds non-security behaviour toggles.
type GeneralBehaviour struct {
	DefaultPage        string                `json:"default_page"`
	DefaultToNativeApp bool                  `json:"default_to_native_app"`
	DefaultToWebEditor bool                  `json:"default_to_web_editor"`
	CompressFiles      map[ProviderKind]bool `json:"compress_files"`
}

// ThemeSettings holds display preferences.
type ThemeSettings struct {
	FontSize uint8  `json:"font_size"`
	Theme    string `json:"theme"`
}

// Security holds the security settings plus the two state-level
// protected values: the integrity signature over the whole persisted
// state and the optional fingerprint hash derived from related fields.
type Security struct {
	Encryption EncryptionSettings `json:"encryption"`
	TwoFactor  TwoFactorAuth      `json:"two_factor_authentication"`
	// Fingerprint is a dependent hash: its plaintext is reassembled at
	// rotation time from the fields named in its related keys.
	Fingerprint *crypto.Value `json:"fingerprint"`
	// Signature is the keyed MAC over the serialized state, excluding
	// itself. Recomputed on every save.
	Signature *crypto.Value `json:"signature"`
}

// EncryptionSettings controls how the state file is written.
type EncryptionSettings struct {
	EncryptState  bool `json:"encrypt_state"`
	CompressState bool `json:"compress_state"`
}

// TwoFactorAuth holds the 2FA toggle and its protected secret.
type TwoFactorAuth struct {
	Enabled bool          `json:"enabled"`
	Secret  *crypto.Value `json:"secret,omitempty"`
}

func defaultSettings() Settings {
	return Settings{
		GeneralBehaviour: GeneralBehaviour{
			DefaultPage:   "dashboard",
			CompressFiles: make(map[ProviderKind]bool),
		},
		Theme: ThemeSettings{FontSize: 16, Theme: "system"},
		Security: Security{
			Fingerprint: &crypto.Value{},
			Signature:   &crypto.Value{},
		},
	}
}
