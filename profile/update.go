// Package profile reads and edits the signed-in user's account.
package profile

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/jrsteele09/go-session-client/authapi"
)

// Update is a profile edit. It is either InfoOnly or WithPasswordChange.
type Update interface {
	Validate() error
	request() authapi.ProfileUpdateRequest
}

// Info is the editable personal data.
type Info struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (i *Info) rules() []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&i.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.LastName, validation.Length(0, 100)),
		validation.Field(&i.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&i.Phone, validation.By(authapi.PhoneNumber)),
	}
}

// InfoOnly edits personal data and leaves the password alone.
type InfoOnly struct {
	Info
}

func (u InfoOnly) Validate() error {
	return validation.ValidateStruct(&u.Info, u.Info.rules()...)
}

func (u InfoOnly) request() authapi.ProfileUpdateRequest {
	return authapi.ProfileUpdateRequest{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

// WithPasswordChange edits personal data and changes the password. The
// current password is required and the confirmation must match.
type WithPasswordChange struct {
	Info
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (u WithPasswordChange) Validate() error {
	errs := validation.Errors{}
	if err := validation.ValidateStruct(&u.Info, u.Info.rules()...); err != nil {
		verrs, ok := err.(validation.Errors)
		if !ok {
			return err
		}
		for k, v := range verrs {
			errs[k] = v
		}
	}
	errs["currentPassword"] = validation.Validate(u.CurrentPassword, validation.Required)
	errs["newPassword"] = validation.Validate(u.NewPassword, validation.Required, validation.Length(8, 128), validation.By(authapi.PasswordStrength))
	errs["confirmPassword"] = validation.Validate(u.ConfirmPassword, validation.Required, validation.By(authapi.Equals(u.NewPassword)))
	return errs.Filter()
}

func (u WithPasswordChange) request() authapi.ProfileUpdateRequest {
	req := InfoOnly{Info: u.Info}.request()
	req.CurrentPassword = u.CurrentPassword
	req.NewPassword = u.NewPassword
	return req
}
