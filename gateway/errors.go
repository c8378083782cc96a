package gateway

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// Error is a classified failure from the authority. It unwraps to one of
// ErrInvalidCredentials, ErrValidationFailed, ErrNetworkUnavailable or
// ErrServerError so callers can use errors.Is.
type Error struct {
	Kind    error
	Status  int // zero when no response was received
	Message string
	Fields  []authapi.FieldError
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("gateway: %v (%d): %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("gateway: %v (%d)", e.Kind, e.Status)
	case e.Message != "":
		return fmt.Sprintf("gateway: %v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("gateway: %v", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// FieldErrors returns the field level failures carried by err, if any.
func FieldErrors(err error) []authapi.FieldError {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Fields
	}
	return nil
}

// Classify maps a non-2xx response onto the error taxonomy.
func Classify(status int, body []byte) *Error {
	message, fields := authapi.DecodeError(body)
	if message == "" {
		message = http.StatusText(status)
	}
	kind := errors.ErrServerError
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = errors.ErrInvalidCredentials
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = errors.ErrValidationFailed
	}
	return &Error{Kind: kind, Status: status, Message: message, Fields: fields}
}

// Invalid wraps a local validation failure.
func Invalid(err error) *Error {
	return &Error{
		Kind:    errors.ErrValidationFailed,
		Message: "invalid request",
		Fields:  authapi.FieldErrors(err),
	}
}

// Unreachable wraps a transport failure.
func Unreachable(err error) *Error {
	return &Error{Kind: errors.ErrNetworkUnavailable, Message: err.Error()}
}
