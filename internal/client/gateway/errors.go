package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error returned by the gateway matches exactly one of
// these with errors.Is.
var (
	ErrNetwork    = errors.New("network error")
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrRateLimit  = errors.New("rate limited")
	ErrUnknown    = errors.New("unexpected server response")
)

// Specific failures, each wrapping its kind.
var (
	ErrInvalidCredentials    = fmt.Errorf("invalid email or password: %w", ErrAuth)
	ErrInvalidOrExpiredCode  = fmt.Errorf("invalid or expired verification code: %w", ErrAuth)
	ErrInvalidOrExpiredToken = fmt.Errorf("invalid or expired reset token: %w", ErrAuth)
	ErrAccountNotFound       = fmt.Errorf("account not found: %w", ErrNotFound)
	ErrRegistrationNotFound  = fmt.Errorf("registration not found: %w", ErrNotFound)
	ErrEmailNotRegistered    = fmt.Errorf("email not registered: %w", ErrNotFound)
	ErrEmailTaken            = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrRateLimited           = fmt.Errorf("too many requests: %w", ErrRateLimit)
)

// APIError describes a failed call. Err is one of the sentinels above;
// Cause, when set, is the underlying transport error.
type APIError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
	Cause   error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d", e.Status)
		if e.Code != "" {
			fmt.Fprintf(&b, ", code %s", e.Code)
		}
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// ServerMessage returns the message the backend sent, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
