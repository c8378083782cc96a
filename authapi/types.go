// Package authapi is the JSON contract between the session client and the
// remote authority.
package authapi

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the sign-up form. Role defaults to RoleEmployee on the server.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Role      string `json:"role,omitempty"`
}

// RegisterResponse confirms the created account. Registration does not log the user in.
type RegisterResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	// AccessToken is the bearer credential. Its claims carry the identity and expiry.
	AccessToken string `json:"access_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is a hint in seconds; the exp claim is authoritative.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is absent when the authority keeps the previous refresh
	// credential valid (refresh without rotation).
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// Refresh returns the refresh credential, or "" when the response omitted it.
func (t TokenResponse) Refresh() string {
	if t.RefreshToken == nil {
		return ""
	}
	return *t.RefreshToken
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// AcceptedResponse acknowledges requests that carry no payload back.
type AcceptedResponse struct {
	Message string `json:"message"`
}

// UserProfile is the account as seen by /users/me.
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// ProfileUpdateRequest is the PATCH /users/me body. Password fields travel
// together or not at all.
type ProfileUpdateRequest struct {
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// Roles issued by the authority
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)
