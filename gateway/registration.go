package gateway

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/jrsteele09/go-session-client/authapi"
)

// Registration is the sign-up form. ConfirmPassword is checked locally and
// never sent.
type Registration struct {
	authapi.RegisterRequest
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate runs the payload rules plus the confirmation check.
func (r Registration) Validate() error {
	errs := validation.Errors{}
	if err := r.RegisterRequest.Validate(); err != nil {
		if verrs, ok := err.(validation.Errors); ok {
			for k, v := range verrs {
				errs[k] = v
			}
		} else {
			return err
		}
	}
	if err := validation.Validate(r.ConfirmPassword, validation.Required, validation.By(authapi.Equals(r.Password))); err != nil {
		errs["confirmPassword"] = err
	}
	return errs.Filter()
}

// request returns the wire payload with the default role applied.
func (r Registration) request() authapi.RegisterRequest {
	req := r.RegisterRequest
	if req.Role == "" {
		req.Role = authapi.RoleEmployee
	}
	return req
}
