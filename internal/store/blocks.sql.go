// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const getBlock = `SELECT id, name, kind, max_positions, is_scoped FROM blocks WHERE id = ?`

func (q *Queries) GetBlock(ctx context.Context, id int64) (Block, error) {
	var b Block
	err := q.db.QueryRowContext(ctx, getBlock, id).Scan(&b.ID, &b.Name, &b.Kind, &b.MaxPositions, &b.IsScoped)
	return b, err
}

const listBlocks = `SELECT id, name, kind, max_positions, is_scoped FROM blocks ORDER BY id ASC`

func (q *Queries) ListBlocks(ctx context.Context) ([]Block, error) {
	rows, err := q.db.QueryContext(ctx, listBlocks)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.Name, &b.Kind, &b.MaxPositions, &b.IsScoped); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertBlock = `INSERT INTO blocks (id, name, kind, max_positions, is_scoped) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, kind = excluded.kind,
    max_positions = excluded.max_positions, is_scoped = excluded.is_scoped`

func (q *Queries) UpsertBlock(ctx context.Context, arg Block) error {
	_, err := q.db.ExecContext(ctx, upsertBlock, arg.ID, arg.Name, arg.Kind, arg.MaxPositions, arg.IsScoped)
	return err
}

const getCategory = `SELECT id, name, slug, parent_id, created_at FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt)
	return c, err
}

const getCategoryBySlug = `SELECT id, name, slug, parent_id, created_at FROM categories WHERE slug = ?`

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategoryBySlug, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt)
	return c, err
}

const createCategory = `INSERT INTO categories (name, slug, parent_id, created_at) VALUES (?, ?, ?, ?)
RETURNING id, name, slug, parent_id, created_at`

type CreateCategoryParams struct {
	Name      string
	Slug      string
	ParentID  sql.NullInt64
	CreatedAt time.Time
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.Slug, arg.ParentID, arg.CreatedAt).
		Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt)
	return c, err
}
