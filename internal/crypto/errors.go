package crypto

import "errors"

// Errors
var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrMalformedEncoding = errors.New("malformed base64 data")
	ErrEmptyPassword     = errors.New("password must not be empty")
	ErrInvalidKeyLength  = errors.New("derived key length must be positive")
	ErrMissingSalt       = errors.New("broken encryption: salt is missing")
	ErrNoRawData         = errors.New("no raw data available")
	ErrNoProtectionTag   = errors.New("no protection tag set")
)
