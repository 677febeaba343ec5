// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createEvent = `INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, level, category, message, user_id, metadata, ip_address, created_at`

type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	var e Event
	err := q.db.QueryRowContext(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.Metadata,
		arg.IpAddress,
		arg.CreatedAt,
	).Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.IpAddress, &e.CreatedAt)
	return e, err
}

const listRecentEvents = `SELECT id, level, category, message, user_id, metadata, ip_address, created_at
FROM events ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listRecentEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.IpAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteOldEvents = `DELETE FROM events WHERE created_at < ?`

func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx, deleteOldEvents, cutoff)
	return err
}

const createAuditLog = `INSERT INTO audit_log (request_id, ip, action, username, message, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateAuditLogParams struct {
	RequestID string
	Ip        string
	Action    string
	Username  string
	Message   string
	CreatedAt time.Time
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error {
	_, err := q.db.ExecContext(ctx, createAuditLog, arg.RequestID, arg.Ip, arg.Action, arg.Username, arg.Message, arg.CreatedAt)
	return err
}

const listAuditLog = `SELECT id, request_id, ip, action, username, message, created_at
FROM audit_log ORDER BY id DESC LIMIT ?`

func (q *Queries) ListAuditLog(ctx context.Context, limit int64) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLog, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.RequestID, &a.Ip, &a.Action, &a.Username, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
