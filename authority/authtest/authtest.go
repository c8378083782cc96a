// Package authtest wires an in-memory authority for tests.
package authtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/authority/auth"
	"github.com/jrsteele09/go-session-client/authority/token"
	"github.com/jrsteele09/go-session-client/authority/token/keys"
	"github.com/jrsteele09/go-session-client/authority/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-session-client/authority/token/refresh/repofake"
	"github.com/jrsteele09/go-session-client/authority/token/reset"
	resetrepofake "github.com/jrsteele09/go-session-client/authority/token/reset/repofake"
	"github.com/jrsteele09/go-session-client/authority/users"
	fakeuserrepo "github.com/jrsteele09/go-session-client/authority/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	Issuer   = "http://authority.test"
	Audience = "expense-api"
)

var (
	keyOnce    sync.Once
	signingKey *keys.SigningKey
	keyErr     error
)

// Clock is a settable time source shared by every component of a Fixture
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Notifier captures reset tokens instead of delivering them
type Notifier struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (n *Notifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tokens == nil {
		n.tokens = make(map[string]string)
	}
	n.tokens[email] = token
	return nil
}

// ResetToken returns the last token sent to email
func (n *Notifier) ResetToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens[email]
}

// Fixture is an authority service backed by fake repos
type Fixture struct {
	Users    users.Repo
	Service  *auth.Service
	Signer   keys.Signer
	Clock    *Clock
	Notifier *Notifier
}

// Option adjusts the token lifetimes of a Fixture
type Option func(*settings)

type settings struct {
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func WithAccessTokenExpiry(d time.Duration) Option {
	return func(s *settings) { s.accessExpiry = d }
}

func WithRefreshTokenExpiry(d time.Duration) Option {
	return func(s *settings) { s.refreshExpiry = d }
}

// New builds a Fixture. The clock starts at the current wall time so
// tokens it mints are valid for consumers using time.Now.
func New(t testing.TB, opts ...Option) *Fixture {
	t.Helper()

	cfg := settings{accessExpiry: time.Hour, refreshExpiry: 7 * 24 * time.Hour}
	for _, opt := range opts {
		opt(&cfg)
	}

	keyOnce.Do(func() {
		signingKey, keyErr = keys.Generate("test-key", 2048)
	})
	require.NoError(t, keyErr)

	clock := NewClock(time.Now())
	signer := keys.NewSigner(signingKey)
	revoked := token.NewInMemoryRevokedUsers(cfg.accessExpiry)
	notifier := &Notifier{}
	userRepo := fakeuserrepo.NewFakeUserRepo()

	svc, err := auth.NewService(
		auth.Repos{Users: userRepo},
		auth.Tokens{
			Access:   token.NewCreator(signer, Issuer, Audience, token.WithAccessTokenExpiry(cfg.accessExpiry), token.WithNowFunc(clock.Now)),
			Verifier: token.NewVerifier(Issuer, Audience, signer.PublicKey(), revoked, clock.Now),
			Signer:   signer,
			Revoked:  revoked,
			Refresh:  refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), refresh.WithExpiry(cfg.refreshExpiry), refresh.WithNowFunc(clock.Now)),
			Reset:    reset.NewManager(resetrepofake.NewFakeResetTokenRepo(), reset.WithNowFunc(clock.Now)),
		},
		auth.WithNowTime(clock.Now),
		auth.WithNotifier(notifier),
	)
	require.NoError(t, err)

	return &Fixture{
		Users:    userRepo,
		Service:  svc,
		Signer:   signer,
		Clock:    clock,
		Notifier: notifier,
	}
}

// CreateUser stores a user with the given credentials and returns it
func (f *Fixture) CreateUser(t testing.TB, email, password, role string) *users.User {
	t.Helper()
	hash, err := users.HashPassword(password)
	require.NoError(t, err)
	user := &users.User{
		Email:        users.NormalizeEmail(email),
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		CompanyID:    "acme",
		Role:         role,
		DateJoined:   f.Clock.Now(),
	}
	require.NoError(t, f.Users.Upsert(user))
	return user
}
