// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the editorial operations behind the HTTP handlers:
// homepage reads and pinning, the content workflow, image processing and
// the audit trail.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/newsdesk/internal/store"
)

// AuditEntry is one editorial action.
type AuditEntry struct {
	RequestID string    `json:"request_id"`
	IP        string    `json:"ip"`
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type requestMetaKey struct{}

// RequestMeta identifies the request an action came from.
type RequestMeta struct {
	RequestID string
	IP        string
}

// WithRequestMeta attaches meta to ctx for audit entries recorded later.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the meta stored by WithRequestMeta.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// AuditService records editorial actions in the audit log.
type AuditService struct {
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuditService creates an AuditService.
func NewAuditService(db *sql.DB, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		queries: store.New(db),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record stores entry. A zero timestamp is set to now.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	return s.queries.CreateAuditLog(ctx, store.CreateAuditLogParams{
		RequestID: entry.RequestID,
		Ip:        entry.IP,
		Action:    entry.Action,
		Username:  entry.Username,
		Message:   entry.Message,
		CreatedAt: entry.Timestamp,
	})
}

// Log records an action taken by username, filling the request id and IP
// from ctx. The change it describes has already been committed, so a
// failed write is only logged.
func (s *AuditService) Log(ctx context.Context, action, username, message string) {
	meta := RequestMetaFrom(ctx)
	err := s.Record(ctx, AuditEntry{
		RequestID: meta.RequestID,
		IP:        meta.IP,
		Action:    action,
		Username:  username,
		Message:   message,
	})
	if err != nil {
		s.logger.Error("failed to write audit entry", "action", action, "username", username, "error", err)
	}
}

// Recent returns the latest entries, newest first.
func (s *AuditService) Recent(ctx context.Context, limit int64) ([]store.AuditLog, error) {
	return s.queries.ListAuditLog(ctx, limit)
}
