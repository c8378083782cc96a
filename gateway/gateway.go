// Package gateway issues the authentication calls against the remote
// authority. It holds no session state and never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultUserAgent = "expense-session/1"

// Config controls how the gateway talks to the authority.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *zerolog.Logger
}

// Gateway issues login, register, refresh, verify and password reset calls.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// New constructs a Gateway. The HTTP client must not be wrapped by the
// refresh interceptor.
func New(cfg Config) (*Gateway, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("gateway: base url required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Gateway{
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: client,
		userAgent:  ua,
		logger:     logger.With().Str("component", "gateway").Logger(),
	}, nil
}

// Login exchanges an email and password for a credential pair.
func (g *Gateway) Login(ctx context.Context, email, password string) (authapi.TokenResponse, error) {
	req := authapi.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := req.Validate(); err != nil {
		return authapi.TokenResponse{}, Invalid(err)
	}
	var tokens authapi.TokenResponse
	if err := g.post(ctx, authapi.RouteLogin, "", req, &tokens); err != nil {
		return authapi.TokenResponse{}, err
	}
	if tokens.AccessToken == "" {
		return authapi.TokenResponse{}, &Error{Kind: errors.ErrServerError, Message: "login response carried no access token"}
	}
	return tokens, nil
}

// Register creates an account. It does not log the user in.
func (g *Gateway) Register(ctx context.Context, r Registration) (authapi.RegisterResponse, error) {
	r.Email = strings.TrimSpace(r.Email)
	if err := r.Validate(); err != nil {
		return authapi.RegisterResponse{}, Invalid(err)
	}
	var created authapi.RegisterResponse
	if err := g.post(ctx, authapi.RouteRegister, "", r.request(), &created); err != nil {
		return authapi.RegisterResponse{}, err
	}
	return created, nil
}

// Refresh exchanges a refresh credential for a new access credential. The
// returned refresh credential is empty when the authority did not rotate it.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (authapi.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return authapi.TokenResponse{}, errors.ErrNoRefreshCredential
	}
	var tokens authapi.TokenResponse
	if err := g.post(ctx, authapi.RouteRefresh, "", authapi.RefreshRequest{RefreshToken: refreshToken}, &tokens); err != nil {
		return authapi.TokenResponse{}, err
	}
	if tokens.AccessToken == "" {
		return authapi.TokenResponse{}, &Error{Kind: errors.ErrServerError, Message: "refresh response carried no access token"}
	}
	return tokens, nil
}

// VerifyToken asks the authority whether access is still accepted.
func (g *Gateway) VerifyToken(ctx context.Context, access string) error {
	if strings.TrimSpace(access) == "" {
		return errors.ErrNotAuthenticated
	}
	return g.post(ctx, authapi.RouteVerifyToken, access, nil, nil)
}

// PasswordResetRequest asks the authority to send a reset token to email.
func (g *Gateway) PasswordResetRequest(ctx context.Context, email string) error {
	req := authapi.PasswordResetRequest{Email: strings.TrimSpace(email)}
	if err := req.Validate(); err != nil {
		return Invalid(err)
	}
	return g.post(ctx, authapi.RoutePasswordResetRequest, "", req, nil)
}

// PasswordResetConfirm sets a new password using a reset token.
func (g *Gateway) PasswordResetConfirm(ctx context.Context, token, newPassword string) error {
	req := authapi.PasswordResetConfirm{Token: strings.TrimSpace(token), NewPassword: newPassword}
	if err := req.Validate(); err != nil {
		return Invalid(err)
	}
	return g.post(ctx, authapi.RoutePasswordReset, "", req, nil)
}

func (g *Gateway) post(ctx context.Context, path, bearer string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	if bearer != "" {
		(&oauth2.Token{AccessToken: bearer, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		g.logger.Warn().Err(err).Str("path", path).Msg("authority unreachable")
		return Unreachable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Unreachable(err)
	}
	if resp.StatusCode >= 300 {
		gerr := Classify(resp.StatusCode, data)
		g.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg(gerr.Message)
		return gerr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: errors.ErrServerError, Status: resp.StatusCode, Message: "undecodable response: " + err.Error()}
	}
	return nil
}
