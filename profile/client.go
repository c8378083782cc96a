package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/gateway"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// Client calls /users/me. The HTTP client is expected to carry the session
// credential, normally one built by interceptor.NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, fmt.Errorf("profile: base url required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("profile: http client required")
	}
	return &Client{baseURL: strings.TrimSuffix(base, "/"), httpClient: httpClient}, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (authapi.UserProfile, error) {
	var p authapi.UserProfile
	err := c.do(ctx, http.MethodGet, nil, &p)
	return p, err
}

// Update validates u locally and sends it. It returns the updated profile.
func (c *Client) Update(ctx context.Context, u Update) (authapi.UserProfile, error) {
	if u == nil {
		return authapi.UserProfile{}, errors.New("profile: nil update")
	}
	if err := u.Validate(); err != nil {
		return authapi.UserProfile{}, gateway.Invalid(err)
	}
	var p authapi.UserProfile
	err := c.do(ctx, http.MethodPatch, u.request(), &p)
	return p, err
}

func (c *Client) do(ctx context.Context, method string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+authapi.RouteMe, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return gateway.Unreachable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.Unreachable(err)
	}
	if resp.StatusCode >= 300 {
		return gateway.Classify(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(errors.ErrServerError, "profile: undecodable response: %s", err.Error())
	}
	return nil
}
