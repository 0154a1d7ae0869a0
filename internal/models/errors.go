package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeIntegrity = "INTEGRITY_ERROR"
	ErrCodeRotation  = "ROTATION_ERROR"
)

// Sentinel errors
var (
	ErrInvalidPassword     = errors.New("invalid password")
	ErrStateTampered       = errors.New("state signature mismatch: tampered or corrupt state")
	ErrStateNotFound       = errors.New("state not found")
	ErrNotUnlocked         = errors.New("session is locked")
	ErrValueNotFound       = errors.New("protected value not found")
	ErrRotationInProgress  = errors.New("rotation already in progress")
	ErrDependencyCycle     = errors.New("related keys form a dependency cycle")
	ErrDependencyUnsettled = errors.New("related key not settled before dependent hash")
)

// RotationError reports where a password rotation failed. Values rewritten
// before the failure stay rewritten; the caller must treat the state as
// mixed until a rotation completes.
type RotationError struct {
	Phase string // "verify", "reprotect", "dependent-hash", "save"
	Path  string // field path of the failing value, if any
	Err   error
}

func (e *RotationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rotation %s [%s]: %s: %v", e.Phase, ErrCodeRotation, e.Path, e.Err)
	}
	return fmt.Sprintf("rotation %s [%s]: %v", e.Phase, ErrCodeRotation, e.Err)
}

func (e *RotationError) Unwrap() error { return e.Err }

// IntegrityError carries the detail behind a signature check failure.
type IntegrityError struct {
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity check failed [%s]: %s: %v", ErrCodeIntegrity, e.Reason, e.Err)
	}
	return fmt.Sprintf("integrity check failed [%s]: %s", ErrCodeIntegrity, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
