// Package errors defines the typed failure taxonomy of the auth subsystem.
// Every expected outcome the HTTP boundary can surface maps to one of the
// sentinels or to a SessionError; anything else is an internal error.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers every credential failure at login: unknown email,
	// wrong password, deactivated account. Callers must not be able to tell
	// them apart.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrEmailAlreadyTaken is returned when registration collides with an
	// existing account's email, including a deactivated one.
	ErrEmailAlreadyTaken = errors.New("email already taken")

	// ErrInvalidDeviceID means the device_id cookie was present but malformed
	// on a path where device identity is load-bearing. The boundary clears
	// both session cookies in response.
	ErrInvalidDeviceID = errors.New("malformed device_id")

	// ErrRateLimitExceeded bounds authentication attempts per identifier and
	// source address.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrInternal      = errors.New("internal error")
)

// Stable machine-readable codes of the error body.
const (
	CodeUnauthorized       = "AUTH_UNAUTHORIZED"
	CodeInvalidSession     = "INVALID_SESSION"
	CodeRefreshTokenReused = "REFRESH_TOKEN_REUSED"
	CodeEmailAlreadyTaken  = "EMAIL_ALREADY_TAKEN"
)

// SessionError is a refresh failure. Reason is internal detail for logs only;
// Code is the public machine-readable code.
type SessionError struct {
	Reason string
	Code   string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("invalid session: %s", e.Reason)
}

// NewSessionError builds a SessionError with the default INVALID_SESSION code.
func NewSessionError(reason string) *SessionError {
	return &SessionError{Reason: reason, Code: CodeInvalidSession}
}

// NewReuseDetectedError builds the replay-specific SessionError.
func NewReuseDetectedError() *SessionError {
	return &SessionError{Reason: "reuse detected", Code: CodeRefreshTokenReused}
}

// AsSessionError unwraps err into a *SessionError if it is one.
func AsSessionError(err error) (*SessionError, bool) {
	var se *SessionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
