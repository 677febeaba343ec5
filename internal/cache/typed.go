// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache stores JSON-encoded values of type T under a key namespace.
type TypedCache[T any] struct {
	cache      Cacher
	namespace  string
	defaultTTL time.Duration
}

// NewTypedCache wraps cache. Keys are stored as namespace + key.
func NewTypedCache[T any](cache Cacher, namespace string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, namespace: namespace, defaultTTL: defaultTTL}
}

// Get returns the value and true if found and decodable.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, c.namespace+key)
	if err != nil {
		return nil, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return &value, true
}

// Set stores value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, c.namespace+key, data, c.defaultTTL)
}

// GetOrSet returns the cached value, or computes and stores it. A failed
// store is ignored since the computed value is still valid.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}
	value, err := fn()
	if err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, value)
	return value, nil
}

// Invalidate drops every key in the namespace.
func (c *TypedCache[T]) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPrefix(ctx, c.namespace)
}
