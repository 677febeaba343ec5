// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/newsdesk/internal/auth"
	"github.com/olegiv/newsdesk/internal/middleware"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/session"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required", nil)
		return
	}

	if locked, remaining := h.login.IsAccountLocked(email); locked {
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			fmt.Sprintf("Too many failed attempts. Try again in %s.", remaining.Round(time.Minute)), nil)
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		h.writeAppError(w, r, err)
		return
	}
	ok := false
	if err == nil {
		ok, err = auth.CheckPassword(req.Password, user.PasswordHash)
		if err != nil {
			h.logger.Warn("unreadable password hash", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
		}
	}
	if !ok {
		h.login.RecordFailedAttempt(email)
		h.logger.Warn("login failed", "category", model.EventCategoryAuth, "email", email, "ip", middleware.ClientIP(r))
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password", nil)
		return
	}
	h.login.RecordSuccessfulLogin(email)

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, time.Now().UTC()); err != nil {
				h.logger.Warn("failed to upgrade password hash", "user_id", user.ID, "error", err)
			}
		}
	}

	if err := session.Login(r.Context(), h.sm, &user); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if h.audit != nil {
		h.audit.Log(r.Context(), model.ActionLogin, user.Name, "signed in")
	}
	WriteSuccess(w, UserResponse{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role})
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r)
	if err := session.Logout(r.Context(), h.sm); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if h.audit != nil {
		h.audit.Log(r.Context(), model.ActionLogout, actor.Name, "signed out")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.GetUser(r)
	WriteSuccess(w, UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
}
