package authapi

import (
	"errors"
	"sort"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse phone numbers written without a country prefix.
const DefaultPhoneRegion = "CL"

// Validate will validate the login payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Validate will validate the registration payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128), validation.By(PasswordStrength)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Phone, validation.By(PhoneNumber)),
		validation.Field(&r.Role, validation.In(RoleAdmin, RoleManager, RoleEmployee)),
	)
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (r PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (r PasswordResetConfirm) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 128), validation.By(PasswordStrength)),
	)
}

// Validate checks the PATCH body. A new password requires the current one.
func (r ProfileUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Length(3, 254), is.Email),
		validation.Field(&r.Phone, validation.By(PhoneNumber)),
		validation.Field(&r.CurrentPassword, validation.By(requiredWith(r.NewPassword))),
		validation.Field(&r.NewPassword, validation.Length(8, 128), validation.By(PasswordStrength)),
	)
}

// PasswordStrength requires upper case, lower case and a digit.
func PasswordStrength(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	var hasUpper, hasLower, hasNumber bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}
	if !hasUpper {
		return errors.New("must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("must contain at least one number")
	}
	return nil
}

// PhoneNumber accepts an empty value or a number valid for its region.
func PhoneNumber(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

// requiredWith makes a field required when other is set.
func requiredWith(other string) validation.RuleFunc {
	return func(value interface{}) error {
		if other == "" {
			return nil
		}
		return validation.Validate(value, validation.Required)
	}
}

// Equals checks that a confirmation field matches its original.
func Equals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FieldErrors flattens an ozzo validation error into field errors sorted by
// field name. Other errors become a single entry with an empty field.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}
	fields := make([]FieldError, 0, len(verrs))
	for name, ferr := range verrs {
		fields = append(fields, FieldError{Field: name, Message: ferr.Error()})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return fields
}
