package errors

import (
	"errors"
	"fmt"
)

// Session lifecycle errors shared by the client packages
var (
	// Credential errors
	ErrMalformedCredential = errors.New("malformed credential")
	ErrNoRefreshCredential = errors.New("no refresh credential held")

	// Remote authority outcomes
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidationFailed   = errors.New("validation failed")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServerError        = errors.New("server error")

	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionEnded     = errors.New("session ended")
)

// Reference authority errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrNotFound            = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers importing this package under the
// errors name keep access to it.
func New(text string) error {
	return errors.New(text)
}
