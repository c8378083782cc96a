package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/authority/auth"
	"github.com/jrsteele09/go-session-client/authority/authtest"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
	newPassword      = "Different456"
)

func login(t *testing.T, f *authtest.Fixture, email, password string) *authapi.TokenResponse {
	t.Helper()
	tr, err := f.Service.Login(context.Background(), authapi.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return tr
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := auth.NewService(auth.Repos{}, auth.Tokens{})
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := authtest.New(t)
	user := f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleManager)

	tr := login(t, f, "John.Doe@Example.com", testUserPassword)
	require.Equal(t, "bearer", tr.TokenType)
	require.Equal(t, 3600, tr.ExpiresIn)
	require.Len(t, tr.Refresh(), 64)

	c, err := claims.Decode(tr.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, c.Subject)
	require.Equal(t, testUserEmail, c.Email)
	require.Equal(t, authapi.RoleManager, c.Role)
	require.Equal(t, "acme", c.TenantID)

	stored, err := f.Users.GetByID(user.ID)
	require.NoError(t, err)
	require.False(t, stored.LastLogin.IsZero())
}

func TestLoginFailures(t *testing.T) {
	f := authtest.New(t)
	user := f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"wrong password", testUserEmail, "Wrong1234", errors.ErrInvalidCredentials},
		{"unknown user", "nobody@example.com", testUserPassword, errors.ErrInvalidCredentials},
		{"missing email", "", testUserPassword, errors.ErrValidationFailed},
		{"bad email", "not-an-email", testUserPassword, errors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Service.Login(context.Background(), authapi.LoginRequest{Email: tt.email, Password: tt.password})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("blocked user", func(t *testing.T) {
		user.Blocked = true
		require.NoError(t, f.Users.Upsert(user))
		_, err := f.Service.Login(context.Background(), authapi.LoginRequest{Email: testUserEmail, Password: testUserPassword})
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})
}

func TestLoginValidationFields(t *testing.T) {
	f := authtest.New(t)
	_, err := f.Service.Login(context.Background(), authapi.LoginRequest{})

	var verr *auth.ValidationErr
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	require.Equal(t, "email", verr.Fields[0].Field)
	require.Equal(t, "password", verr.Fields[1].Field)
}

func TestRegister(t *testing.T) {
	f := authtest.New(t)
	req := authapi.RegisterRequest{
		Email:     "Ana@Example.com",
		Password:  testUserPassword,
		FirstName: "Ana",
		LastName:  "Rojas",
		Phone:     "+1 650-253-0000",
		CompanyID: "acme",
	}

	resp, err := f.Service.Register(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Equal(t, "ana@example.com", resp.Email)
	require.Equal(t, authapi.RoleEmployee, resp.Role)

	_, err = f.Service.Register(context.Background(), req)
	require.ErrorIs(t, err, errors.ErrUserExists)

	login(t, f, "ana@example.com", testUserPassword)
}

func TestRegisterValidation(t *testing.T) {
	f := authtest.New(t)
	_, err := f.Service.Register(context.Background(), authapi.RegisterRequest{
		Email:     "ana@example.com",
		Password:  "weakpassword",
		FirstName: "Ana",
		LastName:  "Rojas",
	})
	var verr *auth.ValidationErr
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "password", verr.Fields[0].Field)
	require.ErrorIs(t, err, errors.ErrValidationFailed)
}

func TestRefreshRotates(t *testing.T) {
	f := authtest.New(t)
	f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)
	tr := login(t, f, testUserEmail, testUserPassword)

	next, err := f.Service.Refresh(context.Background(), authapi.RefreshRequest{RefreshToken: tr.Refresh()})
	require.NoError(t, err)
	require.NotEqual(t, tr.AccessToken, next.AccessToken)
	require.NotEqual(t, tr.Refresh(), next.Refresh())

	_, err = f.Service.Refresh(context.Background(), authapi.RefreshRequest{RefreshToken: tr.Refresh()})
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	_, err = f.Service.Refresh(context.Background(), authapi.RefreshRequest{})
	require.ErrorIs(t, err, errors.ErrValidationFailed)
}

func TestRefreshExpired(t *testing.T) {
	f := authtest.New(t, authtest.WithRefreshTokenExpiry(time.Hour))
	f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)
	tr := login(t, f, testUserEmail, testUserPassword)

	f.Clock.Advance(2 * time.Hour)
	_, err := f.Service.Refresh(context.Background(), authapi.RefreshRequest{RefreshToken: tr.Refresh()})
	require.ErrorIs(t, err, errors.ErrRefreshTokenExpired)
}

func TestVerify(t *testing.T) {
	f := authtest.New(t)
	user := f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)
	tr := login(t, f, testUserEmail, testUserPassword)

	got, c, err := f.Service.Verify(context.Background(), tr.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.ID, c.Subject)

	f.Clock.Advance(2 * time.Hour)
	_, _, err = f.Service.Verify(context.Background(), tr.AccessToken)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestVerifyDeletedUser(t *testing.T) {
	f := authtest.New(t)
	user := f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)
	tr := login(t, f, testUserEmail, testUserPassword)

	require.NoError(t, f.Users.Delete(user.ID))
	_, _, err := f.Service.Verify(context.Background(), tr.AccessToken)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	f := authtest.New(t)
	user := f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)
	tr := login(t, f, testUserEmail, testUserPassword)

	require.NoError(t, f.Service.RequestPasswordReset(context.Background(), authapi.PasswordResetRequest{Email: testUserEmail}))
	resetToken := f.Notifier.ResetToken(testUserEmail)
	require.NotEmpty(t, resetToken)

	f.Clock.Advance(2 * time.Second)
	require.NoError(t, f.Service.ResetPassword(context.Background(), authapi.PasswordResetConfirm{Token: resetToken, NewPassword: newPassword}))

	// Credentials issued before the reset are revoked
	_, _, err := f.Service.Verify(context.Background(), tr.AccessToken)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
	_, err = f.Service.Refresh(context.Background(), authapi.RefreshRequest{RefreshToken: tr.Refresh()})
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	// Reset tokens are single use
	err = f.Service.ResetPassword(context.Background(), authapi.PasswordResetConfirm{Token: resetToken, NewPassword: "Another789"})
	require.ErrorIs(t, err, errors.ErrInvalidResetToken)

	_, err = f.Service.Login(context.Background(), authapi.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	f.Clock.Advance(time.Second)
	fresh := login(t, f, testUserEmail, newPassword)
	got, _, err := f.Service.Verify(context.Background(), fresh.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := authtest.New(t)
	require.NoError(t, f.Service.RequestPasswordReset(context.Background(), authapi.PasswordResetRequest{Email: "nobody@example.com"}))
	require.Empty(t, f.Notifier.ResetToken("nobody@example.com"))

	err := f.Service.ResetPassword(context.Background(), authapi.PasswordResetConfirm{Token: "unknown", NewPassword: newPassword})
	require.ErrorIs(t, err, errors.ErrInvalidResetToken)
}

func TestUpdateProfile(t *testing.T) {
	f := authtest.New(t)
	user := f.CreateUser(t, testUserEmail, testUserPassword, authapi.RoleEmployee)
	f.CreateUser(t, "taken@example.com", testUserPassword, authapi.RoleEmployee)
	ctx := context.Background()

	p, err := f.Service.UpdateProfile(ctx, user.ID, authapi.ProfileUpdateRequest{FirstName: "Johnny", Phone: "+1 650-253-0000"})
	require.NoError(t, err)
	require.Equal(t, "Johnny", p.FirstName)
	require.Equal(t, "User", p.LastName)

	_, err = f.Service.UpdateProfile(ctx, user.ID, authapi.ProfileUpdateRequest{Email: "taken@example.com"})
	require.ErrorIs(t, err, errors.ErrUserExists)

	_, err = f.Service.UpdateProfile(ctx, user.ID, authapi.ProfileUpdateRequest{CurrentPassword: "Wrong1234", NewPassword: newPassword})
	var verr *auth.ValidationErr
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "currentPassword", verr.Fields[0].Field)

	_, err = f.Service.UpdateProfile(ctx, user.ID, authapi.ProfileUpdateRequest{CurrentPassword: testUserPassword, NewPassword: newPassword})
	require.NoError(t, err)
	login(t, f, testUserEmail, newPassword)

	got, err := f.Service.Profile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Johnny", got.FirstName)

	_, err = f.Service.Profile(ctx, "missing")
	require.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestJWKS(t *testing.T) {
	f := authtest.New(t)
	jwks := f.Service.JWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "test-key", jwks.Keys[0].Kid)
}
