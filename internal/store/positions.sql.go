// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

const positionColumns = `id, block_id, position, content_item_id`

func scanPosition(row rowScanner) (Position, error) {
	var p Position
	err := row.Scan(&p.ID, &p.BlockID, &p.Position, &p.ContentItemID)
	return p, err
}

const getPositionBySlot = `SELECT ` + positionColumns + ` FROM positions WHERE block_id = ? AND position = ?`

func (q *Queries) GetPositionBySlot(ctx context.Context, blockID, position int64) (Position, error) {
	return scanPosition(q.db.QueryRowContext(ctx, getPositionBySlot, blockID, position))
}

const getPositionByContent = `SELECT ` + positionColumns + ` FROM positions WHERE content_item_id = ? LIMIT 1`

func (q *Queries) GetPositionByContent(ctx context.Context, contentItemID int64) (Position, error) {
	return scanPosition(q.db.QueryRowContext(ctx, getPositionByContent, contentItemID))
}

const listOccupiedPositions = `SELECT ` + positionColumns + ` FROM positions
WHERE block_id = ? AND content_item_id IS NOT NULL
ORDER BY position ASC`

func (q *Queries) ListOccupiedPositions(ctx context.Context, blockID int64) ([]Position, error) {
	rows, err := q.db.QueryContext(ctx, listOccupiedPositions, blockID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setPositionContent = `UPDATE positions SET content_item_id = ? WHERE id = ?`

func (q *Queries) SetPositionContent(ctx context.Context, id int64, contentItemID sql.NullInt64) error {
	_, err := q.db.ExecContext(ctx, setPositionContent, contentItemID, id)
	return err
}

const clearPositionsByContent = `UPDATE positions SET content_item_id = NULL WHERE content_item_id = ?`

func (q *Queries) ClearPositionsByContent(ctx context.Context, contentItemID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearPositionsByContent, contentItemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createPosition = `INSERT INTO positions (block_id, position) VALUES (?, ?)
ON CONFLICT (block_id, position) DO NOTHING`

// CreatePosition provisions an empty slot row. Existing rows are left untouched.
func (q *Queries) CreatePosition(ctx context.Context, blockID, position int64) error {
	_, err := q.db.ExecContext(ctx, createPosition, blockID, position)
	return err
}

const categoryPositionColumns = `id, block_id, position, category_id, sub_category_id, content_item_id`

func scanCategoryPosition(row rowScanner) (CategoryPosition, error) {
	var p CategoryPosition
	err := row.Scan(&p.ID, &p.BlockID, &p.Position, &p.CategoryID, &p.SubCategoryID, &p.ContentItemID)
	return p, err
}

// sub_category_id IS ? matches NULL against NULL.
const getCategoryPositionBySlot = `SELECT ` + categoryPositionColumns + ` FROM category_positions
WHERE block_id = ? AND category_id = ? AND sub_category_id IS ? AND position = ?`

type GetCategoryPositionBySlotParams struct {
	BlockID       int64
	CategoryID    int64
	SubCategoryID sql.NullInt64
	Position      int64
}

func (q *Queries) GetCategoryPositionBySlot(ctx context.Context, arg GetCategoryPositionBySlotParams) (CategoryPosition, error) {
	row := q.db.QueryRowContext(ctx, getCategoryPositionBySlot, arg.BlockID, arg.CategoryID, arg.SubCategoryID, arg.Position)
	return scanCategoryPosition(row)
}

const getCategoryPositionByContent = `SELECT ` + categoryPositionColumns + ` FROM category_positions
WHERE content_item_id = ? LIMIT 1`

func (q *Queries) GetCategoryPositionByContent(ctx context.Context, contentItemID int64) (CategoryPosition, error) {
	return scanCategoryPosition(q.db.QueryRowContext(ctx, getCategoryPositionByContent, contentItemID))
}

const listOccupiedCategoryPositions = `SELECT ` + categoryPositionColumns + ` FROM category_positions
WHERE block_id = ? AND category_id = ? AND sub_category_id IS ? AND content_item_id IS NOT NULL
ORDER BY position ASC`

type ListOccupiedCategoryPositionsParams struct {
	BlockID       int64
	CategoryID    int64
	SubCategoryID sql.NullInt64
}

func (q *Queries) ListOccupiedCategoryPositions(ctx context.Context, arg ListOccupiedCategoryPositionsParams) ([]CategoryPosition, error) {
	rows, err := q.db.QueryContext(ctx, listOccupiedCategoryPositions, arg.BlockID, arg.CategoryID, arg.SubCategoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []CategoryPosition
	for rows.Next() {
		p, err := scanCategoryPosition(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setCategoryPositionContent = `UPDATE category_positions SET content_item_id = ? WHERE id = ?`

func (q *Queries) SetCategoryPositionContent(ctx context.Context, id int64, contentItemID sql.NullInt64) error {
	_, err := q.db.ExecContext(ctx, setCategoryPositionContent, contentItemID, id)
	return err
}

const clearCategoryPositionsByContent = `UPDATE category_positions SET content_item_id = NULL WHERE content_item_id = ?`

func (q *Queries) ClearCategoryPositionsByContent(ctx context.Context, contentItemID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearCategoryPositionsByContent, contentItemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createCategoryPosition = `INSERT INTO category_positions (block_id, position, category_id, sub_category_id)
VALUES (?, ?, ?, ?)
ON CONFLICT DO NOTHING`

type CreateCategoryPositionParams struct {
	BlockID       int64
	Position      int64
	CategoryID    int64
	SubCategoryID sql.NullInt64
}

// CreateCategoryPosition provisions an empty scoped slot row.
func (q *Queries) CreateCategoryPosition(ctx context.Context, arg CreateCategoryPositionParams) error {
	_, err := q.db.ExecContext(ctx, createCategoryPosition, arg.BlockID, arg.Position, arg.CategoryID, arg.SubCategoryID)
	return err
}

const countSlotRowsForContent = `SELECT
    (SELECT COUNT(*) FROM positions WHERE content_item_id = ?) +
    (SELECT COUNT(*) FROM category_positions WHERE content_item_id = ?)`

// CountSlotRowsForContent counts slot rows referencing the item across both tables.
func (q *Queries) CountSlotRowsForContent(ctx context.Context, contentItemID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSlotRowsForContent, contentItemID, contentItemID).Scan(&count)
	return count, err
}
