// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver   string `env:"TRANSTORE_DB_DRIVER" envDefault:"sqlite"`
	DBDSN      string `env:"TRANSTORE_DB_DSN" envDefault:"./data/transtore.db"`
	ServerHost string `env:"TRANSTORE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"TRANSTORE_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"TRANSTORE_ENV" envDefault:"development"`
	LogLevel   string `env:"TRANSTORE_LOG_LEVEL" envDefault:"info"`

	// DefaultLocale is the display locale used when a request carries none.
	DefaultLocale string `env:"TRANSTORE_DEFAULT_LOCALE" envDefault:"en"`
	// Locales lists the locale codes offered for Accept-Language matching.
	Locales []string `env:"TRANSTORE_LOCALES" envSeparator:"," envDefault:"en"`

	// KindsPath points to the TOML file declaring translatable owner kinds.
	KindsPath string `env:"TRANSTORE_KINDS_PATH" envDefault:"./kinds.toml"`

	// Cache configuration
	RedisURL     string `env:"TRANSTORE_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"TRANSTORE_CACHE_PREFIX" envDefault:"transtore:"` // Redis key prefix
	CacheTTL     int    `env:"TRANSTORE_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"TRANSTORE_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// RetentionDays is how long soft-deleted history is kept before the purge
	// job removes it. 0 disables purging.
	RetentionDays int `env:"TRANSTORE_RETENTION_DAYS" envDefault:"0"`

	// Rate limiting for the public API (requests per second per client IP).
	RateLimitRPS   float64 `env:"TRANSTORE_RATE_LIMIT_RPS" envDefault:"25"`
	RateLimitBurst int     `env:"TRANSTORE_RATE_LIMIT_BURST" envDefault:"50"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("TRANSTORE_DB_DRIVER must be one of %q, %q or %q, got %q",
			DriverSQLite, DriverMySQL, DriverPostgres, cfg.DBDriver)
	}

	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("TRANSTORE_RETENTION_DAYS must not be negative, got %d", cfg.RetentionDays)
	}

	if cfg.DefaultLocale == "" {
		return nil, fmt.Errorf("TRANSTORE_DEFAULT_LOCALE must not be empty")
	}

	// The default locale must be offered for Accept-Language matching.
	found := false
	for _, l := range cfg.Locales {
		if l == cfg.DefaultLocale {
			found = true
			break
		}
	}
	if !found {
		cfg.Locales = append([]string{cfg.DefaultLocale}, cfg.Locales...)
	}

	return cfg, nil
}
