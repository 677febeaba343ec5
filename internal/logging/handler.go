// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that also records WARN and
// above in the events table, so editors can see failures without shell
// access to the server logs.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/store"
)

// EventLogHandler wraps another handler and mirrors records at or above
// its level into the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return c
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	c.inner = h.inner.WithGroup(name)
	if name != "" {
		c.group = h.qualifyKey(name)
	}
	return c
}

func (h *EventLogHandler) clone() *EventLogHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(a slog.Attr) slog.Attr {
	return slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
}

// writeEvent stores r. It uses a background context so that a cancelled
// request still gets its failure recorded, and it never reports errors
// since the record already went to the inner handler.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})

	var (
		category string
		userID   sql.NullInt64
		ip       string
	)
	meta := make(map[string]any, len(attrs))
	for _, a := range attrs {
		switch a.Key[strings.LastIndexByte(a.Key, '.')+1:] {
		case "category":
			category = a.Value.String()
		case "user_id":
			if v := a.Value.Resolve(); v.Kind() == slog.KindInt64 {
				userID = sql.NullInt64{Int64: v.Int64(), Valid: true}
			}
		case "ip":
			ip = a.Value.String()
		default:
			meta[a.Key] = a.Value.Resolve().String()
		}
	}
	if category == "" {
		category = inferCategory(r.Message)
	}

	metadata := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metadata = string(b)
		}
	}

	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  metadata,
		IpAddress: ip,
		CreatedAt: r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message when none was logged.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "auth") || strings.Contains(msg, "csrf"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "pin") || strings.Contains(msg, "slot") || strings.Contains(msg, "block"):
		return model.EventCategoryPlacement
	case strings.Contains(msg, "image") || strings.Contains(msg, "media") || strings.Contains(msg, "watermark"):
		return model.EventCategoryMedia
	case strings.Contains(msg, "publish") || strings.Contains(msg, "content") || strings.Contains(msg, "lock"):
		return model.EventCategoryContent
	case strings.Contains(msg, "cache") || strings.Contains(msg, "redis"):
		return model.EventCategoryCache
	case strings.Contains(msg, "import") || strings.Contains(msg, "legacy"):
		return model.EventCategoryImport
	default:
		return model.EventCategorySystem
	}
}
