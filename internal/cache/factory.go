// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config selects and sizes a backend.
type Config struct {
	// RedisURL enables the Redis backend when set.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
	MaxEntries int
}

// New returns a Redis cache when configured and reachable, otherwise a
// memory cache. A Redis outage at startup degrades to memory instead of
// failing the process.
func New(cfg Config, logger *slog.Logger) Cacher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			logger.Info("using redis cache", "prefix", cfg.Prefix)
			return rc
		}
		logger.Warn("redis unavailable, falling back to memory cache", "error", err)
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxEntries:      cfg.MaxEntries,
		CleanupInterval: time.Minute,
	})
}
