package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/authority/authtest"
	"github.com/jrsteele09/go-session-client/authority/server"
	"github.com/jrsteele09/go-session-client/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "Password123"
)

type testServer struct {
	*httptest.Server
	fixture *authtest.Fixture
}

func newTestServer(t *testing.T, opts ...server.ServerOption) *testServer {
	t.Helper()
	f := authtest.New(t)
	f.CreateUser(t, testEmail, testPassword, authapi.RoleEmployee)
	srv := httptest.NewServer(server.New("TEST", f.Service, opts...))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, fixture: f}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) login(t *testing.T, email, password string) authapi.TokenResponse {
	t.Helper()
	resp, data := ts.do(t, http.MethodPost, authapi.RouteLogin, "", authapi.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var tokens authapi.TokenResponse
	require.NoError(t, json.Unmarshal(data, &tokens))
	return tokens
}

func TestLoginHandler(t *testing.T) {
	ts := newTestServer(t)

	tokens := ts.login(t, testEmail, testPassword)
	require.NotEmpty(t, tokens.AccessToken)
	require.Equal(t, "bearer", tokens.TokenType)
	require.NotEmpty(t, tokens.Refresh())

	resp, data := ts.do(t, http.MethodPost, authapi.RouteLogin, "", authapi.LoginRequest{Email: testEmail, Password: "Wrong1234"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	message, fields := authapi.DecodeError(data)
	require.Equal(t, "Incorrect email or password", message)
	require.Empty(t, fields)
}

func TestLoginValidationBody(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, authapi.RouteLogin, "", authapi.LoginRequest{Email: "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	_, fields := authapi.DecodeError(data)
	require.Len(t, fields, 2)
	require.Equal(t, "email", fields[0].Field)
	require.Equal(t, "password", fields[1].Field)
	require.Contains(t, string(data), `"loc":["body","email"]`)
}

func TestMalformedJSON(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Post(ts.URL+authapi.RouteLogin, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterHandler(t *testing.T) {
	ts := newTestServer(t)
	req := authapi.RegisterRequest{Email: "new@example.com", Password: testPassword, FirstName: "New", LastName: "User"}

	resp, data := ts.do(t, http.MethodPost, authapi.RouteRegister, "", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created authapi.RegisterResponse
	require.NoError(t, json.Unmarshal(data, &created))
	require.Equal(t, "new@example.com", created.Email)
	require.Equal(t, authapi.RoleEmployee, created.Role)

	resp, data = ts.do(t, http.MethodPost, authapi.RouteRegister, "", req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	message, _ := authapi.DecodeError(data)
	require.Equal(t, "Email already registered", message)
}

func TestRefreshHandlerRotates(t *testing.T) {
	ts := newTestServer(t)
	tokens := ts.login(t, testEmail, testPassword)

	resp, data := ts.do(t, http.MethodPost, authapi.RouteRefresh, "", authapi.RefreshRequest{RefreshToken: tokens.Refresh()})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var next authapi.TokenResponse
	require.NoError(t, json.Unmarshal(data, &next))
	require.NotEqual(t, tokens.Refresh(), next.Refresh())

	resp, _ = ts.do(t, http.MethodPost, authapi.RouteRefresh, "", authapi.RefreshRequest{RefreshToken: tokens.Refresh()})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyTokenHandler(t *testing.T) {
	ts := newTestServer(t)
	tokens := ts.login(t, testEmail, testPassword)

	resp, _ := ts.do(t, http.MethodPost, authapi.RouteVerifyToken, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, authapi.RouteVerifyToken, "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data := ts.do(t, http.MethodPost, authapi.RouteVerifyToken, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verified server.VerifyResponse
	require.NoError(t, json.Unmarshal(data, &verified))
	require.True(t, verified.Valid)
	require.Equal(t, testEmail, verified.User.Email)
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	tokens := ts.login(t, testEmail, testPassword)

	ts.fixture.Clock.Advance(2 * time.Hour)
	resp, data := ts.do(t, http.MethodGet, authapi.RouteMe, tokens.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	message, _ := authapi.DecodeError(data)
	require.Equal(t, "Token has expired", message)
}

func TestMeHandlers(t *testing.T) {
	ts := newTestServer(t)
	tokens := ts.login(t, testEmail, testPassword)

	resp, data := ts.do(t, http.MethodGet, authapi.RouteMe, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile authapi.UserProfile
	require.NoError(t, json.Unmarshal(data, &profile))
	require.Equal(t, testEmail, profile.Email)
	require.Equal(t, "acme", profile.CompanyID)

	resp, data = ts.do(t, http.MethodPatch, authapi.RouteMe, tokens.AccessToken, authapi.ProfileUpdateRequest{LastName: "Rojas"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &profile))
	require.Equal(t, "Rojas", profile.LastName)

	resp, data = ts.do(t, http.MethodPatch, authapi.RouteMe, tokens.AccessToken, authapi.ProfileUpdateRequest{NewPassword: "Different456"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	_, fields := authapi.DecodeError(data)
	require.Equal(t, "currentPassword", fields[0].Field)

	resp, _ = ts.do(t, http.MethodPatch, authapi.RouteMe, "", authapi.ProfileUpdateRequest{LastName: "Rojas"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetHandlers(t *testing.T) {
	ts := newTestServer(t)
	old := ts.login(t, testEmail, testPassword)

	resp, _ := ts.do(t, http.MethodPost, authapi.RoutePasswordResetRequest, "", authapi.PasswordResetRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, authapi.RoutePasswordResetRequest, "", authapi.PasswordResetRequest{Email: "ghost@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resetToken := ts.fixture.Notifier.ResetToken(testEmail)
	require.NotEmpty(t, resetToken)

	ts.fixture.Clock.Advance(2 * time.Second)
	confirm := authapi.PasswordResetConfirm{Token: resetToken, NewPassword: "Different456"}
	resp, data := ts.do(t, http.MethodPost, authapi.RoutePasswordReset, "", confirm)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, _ = ts.do(t, http.MethodPost, authapi.RoutePasswordReset, "", confirm)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, authapi.RouteMe, old.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ts.fixture.Clock.Advance(time.Second)
	ts.login(t, testEmail, "Different456")
}

func TestLoginRateLimited(t *testing.T) {
	ts := newTestServer(t, server.WithRateLimit(1, 2))

	for i := 0; i < 2; i++ {
		resp, _ := ts.do(t, http.MethodPost, authapi.RouteLogin, "", authapi.LoginRequest{Email: testEmail, Password: "Wrong1234"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, _ := ts.do(t, http.MethodPost, authapi.RouteLogin, "", authapi.LoginRequest{Email: testEmail, Password: testPassword})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "1", resp.Header.Get("Retry-After"))

	// Other routes share no bucket with login
	resp, _ = ts.do(t, http.MethodGet, authapi.RouteWellKnownJWKS, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJWKSHandler(t *testing.T) {
	ts := newTestServer(t)
	resp, data := ts.do(t, http.MethodGet, authapi.RouteWellKnownJWKS, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))

	var jwks struct {
		Keys []map[string]string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(data, &jwks))
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RS256", jwks.Keys[0]["alg"])
}

func TestMetricsRoute(t *testing.T) {
	ts := newTestServer(t, server.WithMetrics(obs.NewHTTPMetrics(prometheus.NewRegistry())))
	ts.login(t, testEmail, testPassword)

	resp, data := ts.do(t, http.MethodGet, authapi.RouteMetrics, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), `path="POST /auth/login"`)
}

func TestMetricsRouteAbsentWithoutRegistry(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodGet, authapi.RouteMetrics, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
