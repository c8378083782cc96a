// Package interceptor wraps outbound API calls with the session credential
// and a single refresh-and-retry when the API answers 401.
package interceptor

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/internal/ids"
	"github.com/jrsteele09/go-session-client/internal/obs"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// RequestIDHeader correlates the original request with its retry.
const RequestIDHeader = "X-Request-ID"

// maxRetries is a hard cap per logical request, not a backoff policy.
const maxRetries = 1

// Session is the view of the session controller the transport needs.
type Session interface {
	AccessToken() string
	RefreshFrom(ctx context.Context, stale string) error
}

type noRetryKey struct{}

// WithoutRetry marks requests made with ctx as never retried after a 401.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func noRetry(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}

type Transport struct {
	base      http.RoundTripper
	session   Session
	logger    zerolog.Logger
	metrics   *obs.SessionMetrics
	skipPaths map[string]struct{}
}

type TransportOption func(*Transport)

// WithBase sets the transport that carries the requests. Defaults to http.DefaultTransport.
func WithBase(rt http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.base = rt
	}
}

func WithLogger(logger zerolog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

func WithMetrics(m *obs.SessionMetrics) TransportOption {
	return func(t *Transport) {
		t.metrics = m
	}
}

// WithSkipPaths adds routes whose 401 responses are passed through untouched.
// A route matches any URL path ending in it, so an API mounted under a base
// path is covered.
func WithSkipPaths(paths ...string) TransportOption {
	return func(t *Transport) {
		for _, p := range paths {
			t.skipPaths[p] = struct{}{}
		}
	}
}

// New wraps the base transport. The refresh and login routes are never retried.
func New(session Session, opts ...TransportOption) *Transport {
	t := &Transport{
		base:    http.DefaultTransport,
		session: session,
		logger:  zerolog.Nop(),
		skipPaths: map[string]struct{}{
			authapi.RouteRefresh: {},
			authapi.RouteLogin:   {},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "interceptor").Logger()
	return t
}

// NewClient returns an http.Client whose requests go through a Transport.
func NewClient(session Session, timeout time.Duration, opts ...TransportOption) *http.Client {
	return &http.Client{
		Transport: New(session, opts...),
		Timeout:   timeout,
	}
}

// RoundTrip attaches the held credential. On a 401 it refreshes the session
// once and re-issues the request with the new credential. When the refresh
// fails the original 401 response is returned.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = ids.New()
	}

	sent := t.session.AccessToken()
	resp, err := t.base.RoundTrip(t.outgoing(req, sent, requestID, req.Body))
	for attempt := 0; err == nil && resp.StatusCode == http.StatusUnauthorized && attempt < maxRetries; attempt++ {
		if !t.retryable(req) {
			break
		}
		if rerr := t.session.RefreshFrom(req.Context(), sent); rerr != nil {
			t.metrics.Retry(obs.ResultFailure)
			t.logger.Debug().Err(rerr).Str("request_id", requestID).Msg("refresh after 401 failed")
			break
		}
		current := t.session.AccessToken()
		if current == "" || current == sent {
			break
		}
		body, berr := rewind(req)
		if berr != nil {
			t.logger.Debug().Err(berr).Str("request_id", requestID).Msg("cannot replay request body")
			break
		}
		drain(resp)

		sent = current
		resp, err = t.base.RoundTrip(t.outgoing(req, sent, requestID, body))
		if err == nil && resp.StatusCode != http.StatusUnauthorized {
			t.metrics.Retry(obs.ResultSuccess)
		} else {
			t.metrics.Retry(obs.ResultFailure)
		}
	}
	return resp, err
}

// outgoing clones req with the credential and request id attached. A
// RoundTripper must not modify the caller's request.
func (t *Transport) outgoing(req *http.Request, access, requestID string, body io.ReadCloser) *http.Request {
	out := req.Clone(req.Context())
	out.Body = body
	out.Header.Set(RequestIDHeader, requestID)
	if access != "" {
		(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return out
}

func (t *Transport) retryable(req *http.Request) bool {
	if noRetry(req.Context()) {
		return false
	}
	if t.skipped(req.URL.Path) {
		return false
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	return true
}

func (t *Transport) skipped(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for route := range t.skipPaths {
		if path == route || strings.HasSuffix(path, "/"+strings.TrimPrefix(route, "/")) {
			return true
		}
	}
	return false
}

func rewind(req *http.Request) (io.ReadCloser, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, nil
	}
	return req.GetBody()
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
