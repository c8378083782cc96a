package token

import (
	"sync"
	"time"
)

// RevokedUsers remembers, per user, the instant before which every issued
// access token is rejected. Entries expire once no token issued before them
// can still be valid.
type RevokedUsers interface {
	Revoke(userID string, at time.Time)
	IsRevoked(userID string, issuedAt time.Time) bool
	Cleanup(now time.Time) // Remove expired entries
}

type InMemoryRevokedUsers struct {
	revoked map[string]time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewInMemoryRevokedUsers keeps entries for ttl, normally the access token lifetime.
func NewInMemoryRevokedUsers(ttl time.Duration) *InMemoryRevokedUsers {
	return &InMemoryRevokedUsers{
		revoked: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Revoke rejects tokens issued before at. Token timestamps have second
// precision, so at is truncated to the second.
func (c *InMemoryRevokedUsers) Revoke(userID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[userID] = at.Truncate(time.Second)
}

func (c *InMemoryRevokedUsers) IsRevoked(userID string, issuedAt time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	before, exists := c.revoked[userID]
	return exists && issuedAt.Before(before)
}

func (c *InMemoryRevokedUsers) Cleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, at := range c.revoked {
		if now.Sub(at) > c.ttl {
			delete(c.revoked, userID)
		}
	}
}
