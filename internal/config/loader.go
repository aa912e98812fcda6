package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the configuration from the environment in priority order:
// 1. Default values
// 2. Environment variables (exact names, no prefix)
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default for every setting that has one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")

	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 3000)

	v.SetDefault("stellar_horizon_url", "https://horizon.stellar.org")
	v.SetDefault("indexer_mode", ModePolling)
	v.SetDefault("poll_interval_secs", 2)
	v.SetDefault("horizon_limit", 200)

	v.SetDefault("db_max_connections", 10)
	v.SetDefault("db_min_connections", 2)
	v.SetDefault("db_connection_timeout", 30)
	v.SetDefault("db_idle_timeout", 600)
	v.SetDefault("db_max_lifetime", 1800)

	v.SetDefault("rate_limit_window_secs", 60)
	v.SetDefault("rate_limit_pairs", 60)
	v.SetDefault("rate_limit_orderbook", 30)
	v.SetDefault("rate_limit_quote", 100)
	v.SetDefault("rate_limit_default", 200)
}

// bindEnv ties each viper key to its exact environment variable. The
// variables carry no application prefix (DATABASE_URL, not
// STELLARROUTE_DATABASE_URL), so each binding is explicit.
func bindEnv(v *viper.Viper) {
	for key, envVar := range map[string]string{
		"database_url":           "DATABASE_URL",
		"redis_url":              "REDIS_URL",
		"api_host":               "API_HOST",
		"api_port":               "API_PORT",
		"stellar_horizon_url":    "STELLAR_HORIZON_URL",
		"indexer_mode":           "INDEXER_MODE",
		"poll_interval_secs":     "POLL_INTERVAL_SECS",
		"horizon_limit":          "HORIZON_LIMIT",
		"db_max_connections":     "DB_MAX_CONNECTIONS",
		"db_min_connections":     "DB_MIN_CONNECTIONS",
		"db_connection_timeout":  "DB_CONNECTION_TIMEOUT",
		"db_idle_timeout":        "DB_IDLE_TIMEOUT",
		"db_max_lifetime":        "DB_MAX_LIFETIME",
		"rate_limit_window_secs": "RATE_LIMIT_WINDOW_SECS",
		"rate_limit_pairs":       "RATE_LIMIT_PAIRS",
		"rate_limit_orderbook":   "RATE_LIMIT_ORDERBOOK",
		"rate_limit_quote":       "RATE_LIMIT_QUOTE",
		"rate_limit_default":     "RATE_LIMIT_DEFAULT",
	} {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key, envVar)
	}
}
