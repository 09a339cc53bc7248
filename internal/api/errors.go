// Package api provides the provider client for remote directory listings,
// mutations and share-save calls.
package api

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider indicates the configured provider kind has no
// registered implementation.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ErrAccessCodeRequired indicates the share link needs an access code that
// was not supplied.
var ErrAccessCodeRequired = errors.New("share requires an access code")

// ValidationError indicates request input was rejected locally, before any
// network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a local validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteError carries a provider error code alongside the message. Code is
// the provider's res_code (or HTTP status when the body was not decodable).
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsRemoteError checks if an error came back from the provider rather than
// from local validation or transport failure.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
