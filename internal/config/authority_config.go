package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthorityConfig configures the reference authority served by cmd/authserver.
type AuthorityConfig interface {
	GetPort() string
	GetIssuer() string
	GetAudience() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetResetTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetLoginRateLimit() (perSecond int, burst int)
	GetSigningKeyPEM() string
	GetAdminEmail() string
}

type Authority struct{}

var _ AuthorityConfig = Authority{}

func (Authority) GetPort() string {
	port := GetEnv("PORT", "8000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (Authority) GetIssuer() string {
	return GetEnv("ISSUER", "http://localhost:8000")
}

func (Authority) GetAudience() string {
	return GetEnv("AUDIENCE", "expense-api")
}

func (Authority) GetAccessTokenExpiry() time.Duration {
	return GetDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute)
}

func (Authority) GetRefreshTokenExpiry() time.Duration {
	return GetDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}

func (Authority) GetResetTokenExpiry() time.Duration {
	return GetDuration("RESET_TOKEN_EXPIRY", 30*time.Minute)
}

func (Authority) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Authority) GetLoginRateLimit() (int, int) {
	return GetInt("LOGIN_RATE_PER_SECOND", 5), GetInt("LOGIN_RATE_BURST", 10)
}

// GetSigningKeyPEM returns a PKCS#1 RSA private key. Empty means a key is
// generated at startup and tokens do not survive a restart.
func (Authority) GetSigningKeyPEM() string {
	return GetEnv("SIGNING_KEY_PEM", "")
}

// GetAdminEmail is the account seeded with a generated password on an empty user store
func (Authority) GetAdminEmail() string {
	return GetEnv("ADMIN_EMAIL", "admin@example.com")
}
