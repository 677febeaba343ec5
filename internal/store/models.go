// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Slug      string        `json:"slug"`
	ParentID  sql.NullInt64 `json:"parent_id"`
	CreatedAt time.Time     `json:"created_at"`
}

type Block struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	MaxPositions int64  `json:"max_positions"`
	IsScoped     bool   `json:"is_scoped"`
}

type Medium struct {
	ID          int64     `json:"id"`
	Uuid        string    `json:"uuid"`
	Folder      string    `json:"folder"`
	TargetID    int64     `json:"target_id"`
	Path        string    `json:"path"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	Watermarked bool      `json:"watermarked"`
	CreatedAt   time.Time `json:"created_at"`
}

type ContentItem struct {
	ID            int64         `json:"id"`
	Kind          string        `json:"kind"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Excerpt       string        `json:"excerpt"`
	IsPublished   bool          `json:"is_published"`
	IsPinned      bool          `json:"is_pinned"`
	BlockID       sql.NullInt64 `json:"block_id"`
	ImageID       sql.NullInt64 `json:"image_id"`
	CategoryID    sql.NullInt64 `json:"category_id"`
	SubCategoryID sql.NullInt64 `json:"sub_category_id"`
	PublishDate   sql.NullTime  `json:"publish_date"`
	IsScheduled   bool          `json:"is_scheduled"`
	IsTrashed     bool          `json:"is_trashed"`
	IsLocked      bool          `json:"is_locked"`
	LockedBy      sql.NullInt64 `json:"locked_by"`
	LockedAt      sql.NullTime  `json:"locked_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Position is a row of the generic slot table.
type Position struct {
	ID            int64         `json:"id"`
	BlockID       int64         `json:"block_id"`
	Position      int64         `json:"position"`
	ContentItemID sql.NullInt64 `json:"content_item_id"`
}

// CategoryPosition is a row of the category-scoped slot table.
type CategoryPosition struct {
	ID            int64         `json:"id"`
	BlockID       int64         `json:"block_id"`
	Position      int64         `json:"position"`
	CategoryID    int64         `json:"category_id"`
	SubCategoryID sql.NullInt64 `json:"sub_category_id"`
	ContentItemID sql.NullInt64 `json:"content_item_id"`
}

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	Metadata  string        `json:"metadata"`
	IpAddress string        `json:"ip_address"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLog struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Ip        string    `json:"ip"`
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
