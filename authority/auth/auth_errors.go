package auth

import (
	"fmt"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// ValidationErr reports rejected request fields. It unwraps to
// errors.ErrValidationFailed.
type ValidationErr struct {
	Fields []authapi.FieldError
}

func (e *ValidationErr) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func (e *ValidationErr) Unwrap() error {
	return errors.ErrValidationFailed
}

func invalid(err error) error {
	return &ValidationErr{Fields: authapi.FieldErrors(err)}
}

func invalidField(field, message string) error {
	return &ValidationErr{Fields: []authapi.FieldError{{Field: field, Message: message}}}
}
