// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// request context and abuse protection.
package middleware

import (
	"context"
	"database/sql"
	"net"
	"net/http"

	"github.com/alexedwards/scs/v2"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/newsdesk/internal/service"
	"github.com/olegiv/newsdesk/internal/session"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the authenticated store.User.
const ContextKeyUser ContextKey = "user"

// RequireUser loads the session user into the request context and rejects
// requests without one.
func RequireUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := session.UserID(r.Context(), sm)
			if userID == 0 {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				// Deleted user or broken session.
				_ = sm.Destroy(r.Context())
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// Actor returns the current user as the editor performing a change.
func Actor(r *http.Request) slots.Actor {
	if user := GetUser(r); user != nil {
		return slots.Actor{ID: user.ID, Name: user.Name}
	}
	return slots.Actor{}
}

// RequestMeta stores the request id and client IP for audit entries. It
// must run after chi's RequestID and RealIP.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithRequestMeta(r.Context(), service.RequestMeta{
			RequestID: chimw.GetReqID(r.Context()),
			IP:        ClientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the request's remote address without the port. Behind
// chi's RealIP this is the address the proxy reported.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
