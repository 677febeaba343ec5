// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session manages editor sessions stored in SQLite.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/newsdesk/internal/store"
)

// Session keys.
const (
	KeyUserID   = "user_id"
	KeyUserName = "user_name"
	KeyRole     = "role"
)

// DefaultLifetime is used when no lifetime is configured.
const DefaultLifetime = 24 * time.Hour

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool, lifetime time.Duration) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 3
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		// __Host- cookies must be Secure with Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}
	return sm
}

// Login starts an authenticated session for u. The token is renewed to
// prevent session fixation.
func Login(ctx context.Context, sm *scs.SessionManager, u *store.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, KeyUserID, u.ID)
	sm.Put(ctx, KeyUserName, u.Name)
	sm.Put(ctx, KeyRole, u.Role)
	return nil
}

// Logout destroys the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// UserID returns the logged-in user, or 0.
func UserID(ctx context.Context, sm *scs.SessionManager) int64 {
	return sm.GetInt64(ctx, KeyUserID)
}
