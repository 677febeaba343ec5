// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "NEWSDESK_"

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"DB_PATH" envDefault:"./data/newsdesk.db"`
	SessionSecret string `env:"SESSION_SECRET,required"`
	ServerHost    string `env:"SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
	// LockTimeoutMinutes is how long an edit lock holds against other editors.
	LockTimeoutMinutes int `env:"LOCK_TIMEOUT_MINUTES" envDefault:"30"`

	// Images
	UploadsDir    string `env:"UPLOADS_DIR" envDefault:"./uploads"`
	UploadsURL    string `env:"UPLOADS_URL" envDefault:"/uploads"`
	IncomingDir   string `env:"INCOMING_DIR" envDefault:"./incoming"`
	WatermarkPath string `env:"WATERMARK_PATH"`
	ImageWorkers  int    `env:"IMAGE_WORKERS"` // 0 = min(4, NumCPU)

	// Cache
	RedisURL     string        `env:"REDIS_URL"` // optional, memory cache otherwise
	CachePrefix  string        `env:"CACHE_PREFIX" envDefault:"newsdesk:"`
	HomeCacheTTL time.Duration `env:"HOME_CACHE_TTL" envDefault:"30s"`
	CacheMaxSize int           `env:"CACHE_MAX_SIZE" envDefault:"10000"`

	// API throttling per client IP
	APIRateLimit float64 `env:"API_RATE_LIMIT" envDefault:"20"`
	APIRateBurst int     `env:"API_RATE_BURST" envDefault:"40"`

	// Legacy MySQL database for -import-legacy
	Legacy LegacyConfig `envPrefix:"LEGACY_"`

	DoSeed bool `env:"DO_SEED" envDefault:"false"`
}

// LegacyConfig locates the legacy newsroom database.
type LegacyConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"3306"`
	User        string `env:"USER"`
	Password    string `env:"PASSWORD"`
	Database    string `env:"DB"`
	TablePrefix string `env:"PREFIX"`
}

// Enabled reports whether a legacy database is configured.
func (l LegacyConfig) Enabled() bool {
	return l.Database != ""
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

// LockTimeout returns the edit lock lifetime.
func (c Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMinutes) * time.Minute
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MaxImageWorkers caps the image pool.
const MaxImageWorkers = 4

// DefaultImageWorkers returns min(4, NumCPU).
func DefaultImageWorkers() int {
	return min(MaxImageWorkers, runtime.NumCPU())
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("%sSESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			EnvPrefix, MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("%sSESSION_SECRET is a known default value and must not be used; "+
				"generate a secure secret with: openssl rand -base64 32", EnvPrefix)
		}
	}
	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn(EnvPrefix + "SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if c.LockTimeoutMinutes <= 0 {
		return fmt.Errorf("%sLOCK_TIMEOUT_MINUTES must be positive, got %d", EnvPrefix, c.LockTimeoutMinutes)
	}
	if c.SessionLifetime <= 0 {
		return errors.New(EnvPrefix + "SESSION_LIFETIME must be positive")
	}
	if c.HomeCacheTTL < 0 {
		return errors.New(EnvPrefix + "HOME_CACHE_TTL must not be negative")
	}
	if c.APIRateLimit <= 0 || c.APIRateBurst <= 0 {
		return errors.New(EnvPrefix + "API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	// The pool can be made smaller than the default, never larger.
	switch def := DefaultImageWorkers(); {
	case c.ImageWorkers <= 0:
		c.ImageWorkers = def
	case c.ImageWorkers > def:
		slog.Warn("image workers capped", "requested", c.ImageWorkers, "max", def)
		c.ImageWorkers = def
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
