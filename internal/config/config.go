package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	AuthorityConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// ClientConfig drives the session controller, its gateway and credential store.
type ClientConfig interface {
	GetAPIURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetRefreshSkew() time.Duration
	GetStoreDriver() string
	GetStorePath() string
	GetDatabaseURL() string
}

type mainConfig struct {
	EnvVars
	Client
	Authority
}

func New() Config {
	return mainConfig{}
}
