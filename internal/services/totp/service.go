package totp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/statevault/statevault/internal/crypto"
	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
)

const issuer = "statevault"

// Service manages the optional second authentication factor. The shared
// secret lives in the state as an encrypted value, so it rotates with
// the password like every other secret.
type Service struct {
	logger *events.Logger
}

// NewService creates a TOTP service.
func NewService(logger *events.Logger) *Service {
	return &Service{
		logger: logger.WithField("component", "totp"),
	}
}

// Enroll generates a fresh shared secret, stores it encrypted in the
// state, and returns the otpauth URL for the authenticator app.
func (s *Service) Enroll(st *models.State, password []byte, account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}

	secret, err := crypto.NewValue([]byte(key.Secret()), crypto.ModeEncrypt|crypto.ModeEncode, password, nil)
	if err != nil {
		return "", fmt.Errorf("protect totp secret: %w", err)
	}

	st.Settings.Security.TwoFactor.Enabled = true
	st.Settings.Security.TwoFactor.Secret = secret

	s.logger.WithField("account", account).Info("Two-factor enrolled")
	return key.URL(), nil
}

// Verify checks code against the enrolled secret at the current time.
func (s *Service) Verify(st *models.State, password []byte, code string) (bool, error) {
	return s.VerifyAt(st, password, code, time.Now())
}

// VerifyAt checks code against the enrolled secret at a given time.
func (s *Service) VerifyAt(st *models.State, password []byte, code string, at time.Time) (bool, error) {
	tf := st.Settings.Security.TwoFactor
	if !tf.Enabled || tf.Secret == nil || tf.Secret.IsZero() {
		return false, fmt.Errorf("two-factor: %w", models.ErrValueNotFound)
	}

	secret, err := tf.Secret.RawDataString(password)
	if err != nil {
		return false, fmt.Errorf("recover totp secret: %w", err)
	}

	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("validate code: %w", err)
	}
	return ok, nil
}

// Disable removes the enrolled secret.
func (s *Service) Disable(st *models.State) {
	st.Settings.Security.TwoFactor.Enabled = false
	st.Settings.Security.TwoFactor.Secret = nil
	s.logger.Info("Two-factor disabled")
}
