package domain

import (
	"errors"
	"fmt"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrUnauthenticated    = errors.New("missing or invalid access token")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// OAuth flow errors
var (
	ErrUnknownProvider       = errors.New("unknown oauth provider")
	ErrMissingCallbackParams = errors.New("missing required parameters (code or state)")
	ErrStateMismatch         = errors.New("invalid state parameter")
	ErrTokenExchangeFailed   = errors.New("failed to retrieve access token")
	ErrProfileFetchFailed    = errors.New("failed to retrieve user profile")
	ErrMissingEmail          = errors.New("failed to retrieve user email")
	ErrSessionUnavailable    = errors.New("session unavailable")
)

// Validation errors
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrWeakPassword    = errors.New("password does not meet requirements")
	ErrNoUpdateFields  = errors.New("no update fields provided")
	ErrNoChanges       = errors.New("no changes made to profile")
	ErrInvalidScanType = errors.New("invalid scan type")
	ErrInvalidID       = errors.New("invalid document id format")
	ErrInvalidField    = errors.New("invalid field value")
	ErrInvalidBody     = errors.New("invalid request body")
)

// Document errors
var (
	ErrDocumentNotFound = errors.New("document not found or unauthorized")
)

// ValidationError wraps an input problem with a client-facing message.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a ValidationError wrapping ErrInvalidEmail,
// ErrWeakPassword or any other validation sentinel.
func NewValidationError(err error, format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ProviderDeniedError is reported when the provider itself appended an
// error to the callback redirect.
type ProviderDeniedError struct {
	Provider    string
	Code        string
	Description string
}

func (e *ProviderDeniedError) Error() string {
	msg := fmt.Sprintf("%s OAuth error: %s", e.Provider, e.Code)
	if e.Description != "" {
		msg += " - " + e.Description
	}
	return msg
}
