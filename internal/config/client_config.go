package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	StoreDriverFile     = "file"
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIURL returns the base URL of the remote authority, without trailing slash
func (Client) GetAPIURL() string {
	return strings.TrimSuffix(GetEnv("API_URL", "http://localhost:8000"), "/")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDuration("REQUEST_TIMEOUT", 10*time.Second)
}

// GetRefreshTimeout bounds a single coalesced refresh exchange
func (Client) GetRefreshTimeout() time.Duration {
	return GetDuration("REFRESH_TIMEOUT", 15*time.Second)
}

// GetRefreshSkew is how long before expiry the proactive refresher wakes up
func (Client) GetRefreshSkew() time.Duration {
	return GetDuration("REFRESH_SKEW", 60*time.Second)
}

func (Client) GetStoreDriver() string {
	switch d := strings.ToLower(GetEnv("STORE_DRIVER", StoreDriverFile)); d {
	case StoreDriverFile, StoreDriverMemory, StoreDriverPostgres:
		return d
	default:
		return StoreDriverFile
	}
}

func (Client) GetStorePath() string {
	if p := os.Getenv("STORE_PATH"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "expense-session", "session.json")
}

func (Client) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
