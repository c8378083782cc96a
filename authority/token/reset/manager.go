package reset

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jrsteele09/go-session-client/internal/errors"
)

const (
	defaultTokenLength = 32
	defaultExpiry      = 30 * time.Minute
)

// Manager issues and redeems password reset tokens
type Manager struct {
	repo    Repo
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.expiry = d
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, opts ...ManagerOption) *Manager {
	m := &Manager{repo: repo, expiry: defaultExpiry, nowFunc: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create issues a reset token for userID, replacing any pending one
func (m *Manager) Create(userID string) (string, error) {
	if err := m.repo.DeleteByUserID(userID); err != nil {
		return "", errors.Wrapf(err, "failed to clear pending reset token")
	}
	b := make([]byte, defaultTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrapf(err, "failed to generate reset token")
	}
	token := hex.EncodeToString(b)
	if err := m.repo.Put(&StoredResetToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.nowFunc().Add(m.expiry),
	}); err != nil {
		return "", errors.Wrapf(err, "failed to store reset token")
	}
	return token, nil
}

// Consume redeems token and returns the user it was issued for
func (m *Manager) Consume(token string) (string, error) {
	if token == "" {
		return "", errors.ErrInvalidResetToken
	}
	stored, err := m.repo.Take(token)
	if err != nil {
		return "", errors.ErrInvalidResetToken
	}
	if !m.nowFunc().Before(stored.ExpiresAt) {
		return "", errors.ErrInvalidResetToken
	}
	return stored.UserID, nil
}
