package authapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldError is a validation failure for a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// ValidationDetail is one entry of a 422 body: {"loc":["body","email"],"msg":"...","type":"..."}.
type ValidationDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ErrorBody is the error envelope. Detail is either a message string or a
// list of ValidationDetail.
type ErrorBody struct {
	Detail any `json:"detail"`
}

// NewMessageError builds {"detail":"message"}.
func NewMessageError(message string) ErrorBody {
	return ErrorBody{Detail: message}
}

// NewValidationError builds a 422 body from field errors.
func NewValidationError(fields []FieldError) ErrorBody {
	details := make([]ValidationDetail, 0, len(fields))
	for _, f := range fields {
		details = append(details, ValidationDetail{
			Loc:  []any{"body", f.Field},
			Msg:  f.Message,
			Type: "value_error",
		})
	}
	return ErrorBody{Detail: details}
}

// DecodeError extracts a message and field errors from an error response body.
// Bodies that are not JSON are returned verbatim as the message.
func DecodeError(body []byte) (string, []FieldError) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return trimmed, nil
	}

	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil {
		return message, nil
	}

	var details []ValidationDetail
	if err := json.Unmarshal(envelope.Detail, &details); err != nil {
		return trimmed, nil
	}
	fields := make([]FieldError, 0, len(details))
	for _, d := range details {
		fields = append(fields, FieldError{Field: fieldFromLoc(d.Loc), Message: d.Msg})
	}
	return "validation failed", fields
}

// fieldFromLoc picks the last string element of a loc path ("body" excluded).
func fieldFromLoc(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		if s, ok := loc[i].(string); ok && s != "body" {
			return s
		}
	}
	return ""
}
