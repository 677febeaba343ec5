// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const mediaColumns = `id, uuid, folder, target_id, path, mime_type, size, watermarked, created_at`

func scanMedium(row rowScanner) (Medium, error) {
	var m Medium
	err := row.Scan(&m.ID, &m.Uuid, &m.Folder, &m.TargetID, &m.Path, &m.MimeType, &m.Size, &m.Watermarked, &m.CreatedAt)
	return m, err
}

const createMedia = `INSERT INTO media (uuid, folder, target_id, path, mime_type, size, watermarked, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + mediaColumns

type CreateMediaParams struct {
	Uuid        string
	Folder      string
	TargetID    int64
	Path        string
	MimeType    string
	Size        int64
	Watermarked bool
	CreatedAt   time.Time
}

func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Medium, error) {
	row := q.db.QueryRowContext(ctx, createMedia,
		arg.Uuid,
		arg.Folder,
		arg.TargetID,
		arg.Path,
		arg.MimeType,
		arg.Size,
		arg.Watermarked,
		arg.CreatedAt,
	)
	return scanMedium(row)
}

const getMediaByID = `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`

func (q *Queries) GetMediaByID(ctx context.Context, id int64) (Medium, error) {
	return scanMedium(q.db.QueryRowContext(ctx, getMediaByID, id))
}
