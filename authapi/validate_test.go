package authapi_test

import (
	"errors"
	"testing"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/stretchr/testify/require"
)

func fieldNames(err error) []string {
	var names []string
	for _, f := range authapi.FieldErrors(err) {
		names = append(names, f.Field)
	}
	return names
}

func TestLoginRequestValidate(t *testing.T) {
	require.NoError(t, authapi.LoginRequest{Email: "user@example.com", Password: "x"}.Validate())

	err := authapi.LoginRequest{Email: "nope"}.Validate()
	require.Error(t, err)
	require.Equal(t, []string{"email", "password"}, fieldNames(err))
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := authapi.RegisterRequest{
		Email:     "new@example.com",
		Password:  "CorrectPass1",
		FirstName: "Ana",
		LastName:  "Pérez",
		Phone:     "+1 650-253-0000",
	}
	require.NoError(t, valid.Validate())

	t.Run("weak password", func(t *testing.T) {
		r := valid
		r.Password = "alllowercase1"
		require.Equal(t, []string{"password"}, fieldNames(r.Validate()))
	})

	t.Run("bad phone", func(t *testing.T) {
		r := valid
		r.Phone = "12"
		require.Equal(t, []string{"phone"}, fieldNames(r.Validate()))
	})

	t.Run("unknown role", func(t *testing.T) {
		r := valid
		r.Role = "root"
		require.Equal(t, []string{"role"}, fieldNames(r.Validate()))
	})

	t.Run("missing names", func(t *testing.T) {
		r := valid
		r.FirstName, r.LastName = "", ""
		require.Equal(t, []string{"firstName", "lastName"}, fieldNames(r.Validate()))
	})
}

func TestProfileUpdateRequiresCurrentPassword(t *testing.T) {
	err := authapi.ProfileUpdateRequest{NewPassword: "NewPass123"}.Validate()
	require.Equal(t, []string{"currentPassword"}, fieldNames(err))

	require.NoError(t, authapi.ProfileUpdateRequest{FirstName: "Ana"}.Validate())
	require.NoError(t, authapi.ProfileUpdateRequest{CurrentPassword: "OldPass123"}.Validate())
	require.NoError(t, authapi.ProfileUpdateRequest{CurrentPassword: "OldPass123", NewPassword: "NewPass123"}.Validate())
}

func TestPasswordResetConfirmValidate(t *testing.T) {
	require.NoError(t, authapi.PasswordResetConfirm{Token: "t", NewPassword: "NewPass123"}.Validate())
	require.Equal(t, []string{"new_password", "token"}, fieldNames(authapi.PasswordResetConfirm{NewPassword: "short"}.Validate()))
}

func TestFieldErrorsNonValidation(t *testing.T) {
	require.Nil(t, authapi.FieldErrors(nil))
	fields := authapi.FieldErrors(errors.New("boom"))
	require.Len(t, fields, 1)
	require.Empty(t, fields[0].Field)
}
