// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API used by the newsroom back office.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/newsdesk/internal/apperr"
	"github.com/olegiv/newsdesk/internal/middleware"
	"github.com/olegiv/newsdesk/internal/service"
	"github.com/olegiv/newsdesk/internal/store"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Config holds the handler dependencies.
type Config struct {
	DB       *sql.DB
	Sessions *scs.SessionManager
	Home     *service.HomeService
	Content  *service.ContentService
	Media    *service.MediaService
	Audit    *service.AuditService
	Login    *middleware.LoginProtection
	// RateLimit throttles API requests per client IP. Nil disables it.
	RateLimit *middleware.RateLimiter
	// IncomingDir is where images waiting for processing are picked up.
	IncomingDir string
	IsDev       bool
	Logger      *slog.Logger
}

// Handler serves the API.
type Handler struct {
	db          *sql.DB
	queries     *store.Queries
	sm          *scs.SessionManager
	home        *service.HomeService
	content     *service.ContentService
	media       *service.MediaService
	audit       *service.AuditService
	login       *middleware.LoginProtection
	rateLimit   *middleware.RateLimiter
	incomingDir string
	isDev       bool
	logger      *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	login := cfg.Login
	if login == nil {
		login = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	return &Handler{
		db:          cfg.DB,
		queries:     store.New(cfg.DB),
		sm:          cfg.Sessions,
		home:        cfg.Home,
		content:     cfg.Content,
		media:       cfg.Media,
		audit:       cfg.Audit,
		login:       login,
		rateLimit:   cfg.RateLimit,
		incomingDir: cfg.IncomingDir,
		isDev:       cfg.IsDev,
		logger:      logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any `json:"data"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response wrapping data.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// writeAppError maps err to its HTTP status. Internal errors are logged
// and, outside development, reported with a generic message.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	message := apperr.MessageOf(err)
	if kind == apperr.KindInternal {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if h.isDev {
			message = err.Error()
		}
	}
	WriteError(w, apperr.HTTPStatus(kind), string(kind), message, nil)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		WriteBadRequest(w, msg, nil)
		return false
	}
	return true
}

// idParam parses the {id} URL parameter.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid ID", nil)
		return 0, false
	}
	return id, true
}
