// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Source yields the legacy newsroom data.
type Source interface {
	Categories(ctx context.Context) ([]Category, error)
	Articles(ctx context.Context) ([]Article, error)
	Positions(ctx context.Context) ([]Position, error)
}

// ConnConfig describes the legacy MySQL connection.
type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// TablePrefix is prepended to every table name, e.g. "nd_".
	TablePrefix string
}

// DSN builds the go-sql-driver DSN for cfg.
func (c ConnConfig) DSN() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, port)
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]{0,20}$`)

// sanitizeTablePrefix rejects prefixes that could break out of a table
// name, since they are interpolated into queries.
func sanitizeTablePrefix(prefix string) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("invalid table prefix %q", prefix)
	}
	return prefix, nil
}

// Reader reads the legacy MySQL database.
type Reader struct {
	db     *sql.DB
	prefix string
}

// NewReader connects to the legacy database.
func NewReader(ctx context.Context, cfg ConnConfig) (*Reader, error) {
	prefix, err := sanitizeTablePrefix(cfg.TablePrefix)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Reader{db: db, prefix: prefix}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Categories returns parents before their children.
func (r *Reader) Categories(ctx context.Context) ([]Category, error) {
	query := fmt.Sprintf(`SELECT id, name, slug, parent_id FROM %scategory
		ORDER BY parent_id IS NOT NULL, id`, r.prefix)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Articles returns every non-deleted article, oldest first.
func (r *Reader) Articles(ctx context.Context) ([]Article, error) {
	query := fmt.Sprintf(`SELECT id, type, title, slug, chapo, status, publish_date,
		category_id, sub_category_id, image_path, created_at
		FROM %sarticle WHERE deleted = 0 ORDER BY id`, r.prefix)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Type, &a.Title, &a.Slug, &a.Excerpt, &a.Status, &a.PublishDate,
			&a.CategoryID, &a.SubCategoryID, &a.ImagePath, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Positions returns the occupied homepage slots from both legacy slot
// tables.
func (r *Reader) Positions(ctx context.Context) ([]Position, error) {
	query := fmt.Sprintf(`SELECT article_id, block_id, position, NULL, NULL
		FROM %sposition WHERE article_id IS NOT NULL
		UNION ALL
		SELECT article_id, block_id, position, category_id, sub_category_id
		FROM %scategory_position WHERE article_id IS NOT NULL
		ORDER BY 2, 4, 5, 3`, r.prefix, r.prefix)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ArticleID, &p.BlockID, &p.Position, &p.CategoryID, &p.SubCategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
