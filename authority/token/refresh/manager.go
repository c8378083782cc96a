package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/internal/errors"
)

const (
	defaultTokenLength = 32 // 32 bytes = 256 bits
	defaultExpiry      = 7 * 24 * time.Hour
)

// Manager handles refresh token creation, validation and rotation. A user
// holds at most one refresh token; issuing a new one revokes the previous.
type Manager struct {
	repo        Repo
	tokenLength int
	expiry      time.Duration
	nowFunc     func() time.Time

	rotateLock sync.Mutex
}

type ManagerOption func(*Manager)

func WithTokenLength(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.tokenLength = n
		}
	}
}

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
	m := &Manager{
		repo:        repo,
		tokenLength: defaultTokenLength,
		expiry:      defaultExpiry,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create generates a new refresh token for userID and stores it
func (m *Manager) Create(userID string) (string, error) {
	m.rotateLock.Lock()
	defer m.rotateLock.Unlock()
	return m.create(userID)
}

// Rotate consumes token and issues its replacement. It returns the owning
// user. A used, unknown or expired token yields ErrInvalidRefreshToken or
// ErrRefreshTokenExpired.
func (m *Manager) Rotate(token string) (userID string, next string, err error) {
	m.rotateLock.Lock()
	defer m.rotateLock.Unlock()

	stored, err := m.repo.Get(token)
	if err != nil {
		return "", "", errors.ErrInvalidRefreshToken
	}
	if m.isExpired(stored) {
		_ = m.repo.Delete(token)
		return "", "", errors.ErrRefreshTokenExpired
	}
	next, err = m.create(stored.UserID)
	if err != nil {
		return "", "", err
	}
	return stored.UserID, next, nil
}

// RevokeUser deletes the refresh token held by userID, if any
func (m *Manager) RevokeUser(userID string) error {
	m.rotateLock.Lock()
	defer m.rotateLock.Unlock()

	existing, err := m.repo.GetByUserID(userID)
	if err != nil || existing == nil {
		return nil
	}
	return m.repo.Delete(existing.Token)
}

func (m *Manager) create(userID string) (string, error) {
	// Delete existing refresh token for this user (single refresh token per user)
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.nowFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

func (m *Manager) isExpired(rt *StoredRefreshToken) bool {
	return m.nowFunc().Sub(rt.Iat) > m.expiry
}
