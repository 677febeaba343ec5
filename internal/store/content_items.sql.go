// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const contentItemColumns = `id, kind, title, slug, excerpt, is_published, is_pinned, block_id, image_id,
    category_id, sub_category_id, publish_date, is_scheduled, is_trashed, is_locked, locked_by, locked_at,
    created_at, updated_at`

func scanContentItem(row rowScanner) (ContentItem, error) {
	var i ContentItem
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Title,
		&i.Slug,
		&i.Excerpt,
		&i.IsPublished,
		&i.IsPinned,
		&i.BlockID,
		&i.ImageID,
		&i.CategoryID,
		&i.SubCategoryID,
		&i.PublishDate,
		&i.IsScheduled,
		&i.IsTrashed,
		&i.IsLocked,
		&i.LockedBy,
		&i.LockedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanContentItems(rows *sql.Rows) ([]ContentItem, error) {
	defer func() { _ = rows.Close() }()
	var items []ContentItem
	for rows.Next() {
		i, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getContentItem = `SELECT ` + contentItemColumns + ` FROM content_items WHERE id = ?`

func (q *Queries) GetContentItem(ctx context.Context, id int64) (ContentItem, error) {
	return scanContentItem(q.db.QueryRowContext(ctx, getContentItem, id))
}

const createContentItem = `INSERT INTO content_items (
    kind, title, slug, excerpt, is_published, image_id, category_id, sub_category_id,
    publish_date, is_scheduled, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contentItemColumns

type CreateContentItemParams struct {
	Kind          string
	Title         string
	Slug          string
	Excerpt       string
	IsPublished   bool
	ImageID       sql.NullInt64
	CategoryID    sql.NullInt64
	SubCategoryID sql.NullInt64
	PublishDate   sql.NullTime
	IsScheduled   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) CreateContentItem(ctx context.Context, arg CreateContentItemParams) (ContentItem, error) {
	row := q.db.QueryRowContext(ctx, createContentItem,
		arg.Kind,
		arg.Title,
		arg.Slug,
		arg.Excerpt,
		arg.IsPublished,
		arg.ImageID,
		arg.CategoryID,
		arg.SubCategoryID,
		arg.PublishDate,
		arg.IsScheduled,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanContentItem(row)
}

const countContentBySlug = `SELECT COUNT(*) FROM content_items WHERE kind = ? AND slug = ?`

func (q *Queries) CountContentBySlug(ctx context.Context, kind, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countContentBySlug, kind, slug).Scan(&count)
	return count, err
}

const setContentPinned = `UPDATE content_items SET is_pinned = ?, block_id = ?, updated_at = ? WHERE id = ?`

type SetContentPinnedParams struct {
	IsPinned  bool
	BlockID   sql.NullInt64
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) SetContentPinned(ctx context.Context, arg SetContentPinnedParams) error {
	_, err := q.db.ExecContext(ctx, setContentPinned, arg.IsPinned, arg.BlockID, arg.UpdatedAt, arg.ID)
	return err
}

const clearContentPin = `UPDATE content_items SET is_pinned = 0, updated_at = ? WHERE id = ?`

// ClearContentPin clears the pinned flag while keeping the block the item targets.
func (q *Queries) ClearContentPin(ctx context.Context, id int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, clearContentPin, updatedAt, id)
	return err
}

const setContentPublished = `UPDATE content_items
SET is_published = ?, publish_date = COALESCE(?, publish_date), is_scheduled = 0, updated_at = ?
WHERE id = ?`

type SetContentPublishedParams struct {
	IsPublished bool
	PublishDate sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

func (q *Queries) SetContentPublished(ctx context.Context, arg SetContentPublishedParams) error {
	_, err := q.db.ExecContext(ctx, setContentPublished, arg.IsPublished, arg.PublishDate, arg.UpdatedAt, arg.ID)
	return err
}

const setContentTrashed = `UPDATE content_items
SET is_trashed = 1, is_published = 0, is_pinned = 0, is_scheduled = 0, updated_at = ?
WHERE id = ?`

func (q *Queries) SetContentTrashed(ctx context.Context, id int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, setContentTrashed, updatedAt, id)
	return err
}

const setContentImage = `UPDATE content_items SET image_id = ?, updated_at = ? WHERE id = ?`

func (q *Queries) SetContentImage(ctx context.Context, id int64, imageID sql.NullInt64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, setContentImage, imageID, updatedAt, id)
	return err
}

const lockContent = `UPDATE content_items SET is_locked = 1, locked_by = ?, locked_at = ? WHERE id = ?`

func (q *Queries) LockContent(ctx context.Context, id, userID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, lockContent, userID, at, id)
	return err
}

const unlockContent = `UPDATE content_items SET is_locked = 0, locked_by = NULL, locked_at = NULL WHERE id = ?`

func (q *Queries) UnlockContent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, unlockContent, id)
	return err
}

const releaseExpiredLocks = `UPDATE content_items
SET is_locked = 0, locked_by = NULL, locked_at = NULL
WHERE is_locked = 1 AND (locked_at IS NULL OR locked_at < ?)`

// ReleaseExpiredLocks unlocks items whose lock was taken before cutoff.
func (q *Queries) ReleaseExpiredLocks(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, releaseExpiredLocks, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listScheduledDue = `SELECT ` + contentItemColumns + ` FROM content_items
WHERE is_scheduled = 1 AND is_published = 0 AND is_trashed = 0 AND publish_date <= ?
ORDER BY publish_date ASC, id ASC`

func (q *Queries) ListScheduledDue(ctx context.Context, now time.Time) ([]ContentItem, error) {
	rows, err := q.db.QueryContext(ctx, listScheduledDue, now)
	if err != nil {
		return nil, err
	}
	return scanContentItems(rows)
}

const getContentTitles = `SELECT id, title FROM content_items WHERE id IN (/*ids*/)`

// GetContentTitles returns the titles of the given items keyed by id.
func (q *Queries) GetContentTitles(ctx context.Context, ids []int64) (map[int64]string, error) {
	titles := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	query, args := expandInt64s(getContentTitles, "/*ids*/", ids)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

const listContentByIDs = `SELECT ` + contentItemColumns + ` FROM content_items WHERE id IN (/*ids*/)`

// ListContentByIDs loads the given items in no particular order.
func (q *Queries) ListContentByIDs(ctx context.Context, ids []int64) ([]ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args := expandInt64s(listContentByIDs, "/*ids*/", ids)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanContentItems(rows)
}

const listFillCandidates = `SELECT ` + contentItemColumns + ` FROM content_items c
WHERE c.kind = ?
  AND c.is_published = 1
  AND c.is_pinned = 0
  AND c.is_trashed = 0
  AND NOT EXISTS (SELECT 1 FROM positions p WHERE p.content_item_id = c.id)
  AND NOT EXISTS (SELECT 1 FROM category_positions cp WHERE cp.content_item_id = c.id)
  /*scope*/
  /*exclude*/
ORDER BY c.publish_date DESC, c.id DESC
LIMIT ?`

type ListFillCandidatesParams struct {
	Kind string
	// CategoryID restricts candidates to a category when valid.
	CategoryID sql.NullInt64
	// SubCategoryID further restricts candidates when valid.
	SubCategoryID sql.NullInt64
	ExcludeIDs    []int64
	Limit         int64
}

// ListFillCandidates returns published, unpinned, unslotted items newest first.
func (q *Queries) ListFillCandidates(ctx context.Context, arg ListFillCandidatesParams) ([]ContentItem, error) {
	query := listFillCandidates
	args := []any{arg.Kind}

	var scope strings.Builder
	if arg.CategoryID.Valid {
		scope.WriteString("AND c.category_id = ?")
		args = append(args, arg.CategoryID.Int64)
	}
	if arg.SubCategoryID.Valid {
		scope.WriteString(" AND c.sub_category_id = ?")
		args = append(args, arg.SubCategoryID.Int64)
	}
	query = strings.Replace(query, "/*scope*/", scope.String(), 1)

	exclude := ""
	if len(arg.ExcludeIDs) > 0 {
		exclude = "AND c.id NOT IN (" + placeholders(len(arg.ExcludeIDs)) + ")"
		for _, id := range arg.ExcludeIDs {
			args = append(args, id)
		}
	}
	query = strings.Replace(query, "/*exclude*/", exclude, 1)
	args = append(args, arg.Limit)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanContentItems(rows)
}

// expandInt64s replaces marker in query with one placeholder per id.
func expandInt64s(query, marker string, ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.Replace(query, marker, placeholders(len(ids)), 1), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// UniqueContentSlug returns base, or base with the first free "-N" suffix,
// so that it is unused among items of kind.
func UniqueContentSlug(ctx context.Context, q *Queries, kind, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		n, err := q.CountContentBySlug(ctx, kind, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
