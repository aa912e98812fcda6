// Package config loads StellarRoute process configuration from the
// environment. Every setting binds to one exact environment variable;
// defaults cover everything except the database URL.
package config

import (
	"fmt"
	"time"
)

// Indexer ingestion modes.
const (
	ModePolling   = "polling"
	ModeStreaming = "streaming"
)

// Config is the full configuration shared by the indexer and API
// processes. Either process reads only the sections it needs.
type Config struct {
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	API       APIConfig       `mapstructure:",squash"`
	Indexer   IndexerConfig   `mapstructure:",squash"`
	RateLimit RateLimitConfig `mapstructure:",squash"`
}

// DatabaseConfig carries the Postgres DSN and pool tuning.
type DatabaseConfig struct {
	URL                   string `mapstructure:"database_url"`
	MaxConnections        int    `mapstructure:"db_max_connections"`
	MinConnections        int    `mapstructure:"db_min_connections"`
	ConnectionTimeoutSecs int    `mapstructure:"db_connection_timeout"`
	IdleTimeoutSecs       int    `mapstructure:"db_idle_timeout"`
	MaxLifetimeSecs       int    `mapstructure:"db_max_lifetime"`
}

// ConnectionTimeout returns the pool acquire/statement timeout.
func (c DatabaseConfig) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSecs) * time.Second
}

// IdleTimeout returns the idle connection reap interval.
func (c DatabaseConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSecs) * time.Second
}

// MaxLifetime returns the connection max lifetime.
func (c DatabaseConfig) MaxLifetime() time.Duration {
	return time.Duration(c.MaxLifetimeSecs) * time.Second
}

// RedisConfig carries the optional Redis URL. An empty URL disables the
// cache and the Redis rate-limit backend.
type RedisConfig struct {
	URL string `mapstructure:"redis_url"`
}

// Enabled reports whether a Redis endpoint is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// APIConfig carries the HTTP listener settings.
type APIConfig struct {
	Host string `mapstructure:"api_host"`
	Port int    `mapstructure:"api_port"`
}

// ListenAddr returns the host:port bind address.
func (c APIConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IndexerConfig carries the Horizon consumer settings.
type IndexerConfig struct {
	HorizonURL       string `mapstructure:"stellar_horizon_url"`
	Mode             string `mapstructure:"indexer_mode"`
	PollIntervalSecs int    `mapstructure:"poll_interval_secs"`
	HorizonLimit     int    `mapstructure:"horizon_limit"`
}

// PollInterval returns the polling cycle interval.
func (c IndexerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// RateLimitConfig carries the per-group request limits and the shared
// window length.
type RateLimitConfig struct {
	WindowSecs int `mapstructure:"rate_limit_window_secs"`
	Pairs      int `mapstructure:"rate_limit_pairs"`
	Orderbook  int `mapstructure:"rate_limit_orderbook"`
	Quote      int `mapstructure:"rate_limit_quote"`
	Default    int `mapstructure:"rate_limit_default"`
}

// Window returns the shared rate-limit window length.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSecs) * time.Second
}

// Validate checks the complete configuration and names the offending
// environment variable on failure.
func Validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Database.MaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.Database.MinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be >= 0")
	}
	if cfg.Database.MinConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS cannot exceed DB_MAX_CONNECTIONS")
	}
	if cfg.Database.ConnectionTimeoutSecs <= 0 {
		return fmt.Errorf("DB_CONNECTION_TIMEOUT must be positive")
	}
	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535")
	}
	if cfg.Indexer.HorizonURL == "" {
		return fmt.Errorf("STELLAR_HORIZON_URL is required")
	}
	if cfg.Indexer.Mode != ModePolling && cfg.Indexer.Mode != ModeStreaming {
		return fmt.Errorf("INDEXER_MODE must be %q or %q", ModePolling, ModeStreaming)
	}
	if cfg.Indexer.PollIntervalSecs <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECS must be positive")
	}
	if cfg.Indexer.HorizonLimit < 1 || cfg.Indexer.HorizonLimit > 200 {
		return fmt.Errorf("HORIZON_LIMIT must be between 1 and 200")
	}
	if cfg.RateLimit.WindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive")
	}
	for name, limit := range map[string]int{
		"RATE_LIMIT_PAIRS":     cfg.RateLimit.Pairs,
		"RATE_LIMIT_ORDERBOOK": cfg.RateLimit.Orderbook,
		"RATE_LIMIT_QUOTE":     cfg.RateLimit.Quote,
		"RATE_LIMIT_DEFAULT":   cfg.RateLimit.Default,
	} {
		if limit < 1 {
			return fmt.Errorf("%s must be at least 1", name)
		}
	}
	return nil
}
