// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache holds resolved homepage views. Values are opaque bytes so
// the same callers work against the in-process map and a shared Redis.
package cache

import (
	"context"
	"time"
)

// Cacher is implemented by every backend. Implementations are safe for
// concurrent use.
type Cacher interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Stats() Stats
	Close() error
}

// Stats counts cache traffic.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Entries int64   `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

func newStats(hits, misses, sets, entries int64) Stats {
	s := Stats{Hits: hits, Misses: misses, Sets: sets, Entries: entries}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total) * 100
	}
	return s
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
