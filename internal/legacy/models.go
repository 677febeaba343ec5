// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package legacy

import (
	"database/sql"
	"time"

	"github.com/olegiv/newsdesk/internal/model"
)

// Category is a row of the legacy category table. Subcategories carry
// their parent in ParentID.
type Category struct {
	ID       int64
	Name     string
	Slug     string
	ParentID sql.NullInt64
}

// Article is a row of the legacy article table.
type Article struct {
	ID            int64
	Type          string // "article", "news", "video", "diaporama"
	Title         string
	Slug          string
	Excerpt       sql.NullString
	Status        int64 // 1 = online
	PublishDate   sql.NullTime
	CategoryID    sql.NullInt64
	SubCategoryID sql.NullInt64
	ImagePath     sql.NullString
	CreatedAt     time.Time
}

// IsOnline reports whether the article was published in the legacy site.
func (a *Article) IsOnline() bool {
	return a.Status == 1
}

// Kind maps the legacy article type to a content kind.
func (a *Article) Kind() (string, bool) {
	switch a.Type {
	case "article", "news", "":
		return model.KindArticle, true
	case "video":
		return model.KindVideo, true
	case "diaporama", "gallery":
		return model.KindGallery, true
	default:
		return "", false
	}
}

// Position is a pinned slot on the legacy homepage.
type Position struct {
	ArticleID     int64
	BlockID       int64
	Position      int64
	CategoryID    sql.NullInt64
	SubCategoryID sql.NullInt64
}
