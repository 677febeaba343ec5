// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package legacy imports categories, articles and homepage pins from the
// legacy MySQL newsroom database.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/util"
)

// importActor signs pins replayed from the legacy homepage.
var importActor = slots.Actor{Name: "legacy import"}

// Options controls an import run.
type Options struct {
	// SkipExisting leaves items whose slug is already taken alone instead
	// of importing them under a suffixed slug.
	SkipExisting bool
	// Positions replays the legacy homepage pins.
	Positions bool
}

// Result summarizes an import run.
type Result struct {
	CategoriesImported int      `json:"categories_imported"`
	CategoriesSkipped  int      `json:"categories_skipped"`
	ArticlesImported   int      `json:"articles_imported"`
	ArticlesSkipped    int      `json:"articles_skipped"`
	ImagesLinked       int      `json:"images_linked"`
	PositionsImported  int      `json:"positions_imported"`
	Errors             []string `json:"errors,omitempty"`
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Importer copies legacy data into the store.
type Importer struct {
	db     *sql.DB
	engine *slots.Engine
	policy *bluemonday.Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewImporter creates an importer. Pins are replayed through engine so
// they obey the same rules as editor pins.
func NewImporter(db *sql.DB, engine *slots.Engine, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:     db,
		engine: engine,
		policy: bluemonday.StrictPolicy(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// idMaps link legacy ids to imported ids.
type idMaps struct {
	categories map[int64]int64
	articles   map[int64]int64
}

// Import reads everything from src. Categories and articles are written in
// one transaction; pins are replayed afterwards, one transaction each.
func (im *Importer) Import(ctx context.Context, src Source, opts Options) (*Result, error) {
	categories, err := src.Categories(ctx)
	if err != nil {
		return nil, err
	}
	articles, err := src.Articles(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	ids := idMaps{categories: map[int64]int64{}, articles: map[int64]int64{}}

	err = store.RunInTx(ctx, im.db, func(q *store.Queries) error {
		if err := im.importCategories(ctx, q, categories, ids, result); err != nil {
			return err
		}
		return im.importArticles(ctx, q, articles, ids, opts, result)
	})
	if err != nil {
		return nil, fmt.Errorf("importing content: %w", err)
	}

	if opts.Positions {
		positions, err := src.Positions(ctx)
		if err != nil {
			return result, err
		}
		im.importPositions(ctx, positions, ids, result)
	}

	im.logger.Info("legacy import finished",
		"category", model.EventCategoryImport,
		"categories", result.CategoriesImported,
		"articles", result.ArticlesImported,
		"positions", result.PositionsImported,
		"errors", len(result.Errors))
	return result, nil
}

// importCategories expects parents before children.
func (im *Importer) importCategories(ctx context.Context, q *store.Queries, cats []Category, ids idMaps, result *Result) error {
	now := im.now()
	for _, c := range cats {
		name := im.clean(c.Name)
		slug := util.Slugify(c.Slug)
		if slug == "" {
			slug = util.Slugify(name)
		}
		if name == "" || slug == "" {
			result.errorf("category %d: empty name", c.ID)
			continue
		}

		var parent sql.NullInt64
		if c.ParentID.Valid {
			id, ok := ids.categories[c.ParentID.Int64]
			if !ok {
				result.errorf("category %d: unknown parent %d", c.ID, c.ParentID.Int64)
				continue
			}
			parent = sql.NullInt64{Int64: id, Valid: true}
		}

		existing, err := q.GetCategoryBySlug(ctx, slug)
		switch {
		case err == nil:
			ids.categories[c.ID] = existing.ID
			result.CategoriesSkipped++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("looking up category %q: %w", slug, err)
		}

		created, err := q.CreateCategory(ctx, store.CreateCategoryParams{
			Name:      name,
			Slug:      slug,
			ParentID:  parent,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating category %q: %w", slug, err)
		}
		ids.categories[c.ID] = created.ID
		result.CategoriesImported++

		if err := im.provisionScope(ctx, q, created); err != nil {
			return err
		}
	}
	return nil
}

// provisionScope creates the scoped block's slot rows for a new category
// or subcategory.
func (im *Importer) provisionScope(ctx context.Context, q *store.Queries, c store.Category) error {
	categoryID, sub := c.ID, sql.NullInt64{}
	if c.ParentID.Valid {
		categoryID, sub = c.ParentID.Int64, sql.NullInt64{Int64: c.ID, Valid: true}
	}
	if err := store.ProvisionScopedSlots(ctx, q, model.ScopedBlockID, categoryID, sub); err != nil {
		return fmt.Errorf("provisioning slots for category %d: %w", c.ID, err)
	}
	return nil
}

func (im *Importer) importArticles(ctx context.Context, q *store.Queries, articles []Article, ids idMaps, opts Options, result *Result) error {
	now := im.now()
	for _, a := range articles {
		kind, ok := a.Kind()
		if !ok {
			result.errorf("article %d: unknown type %q", a.ID, a.Type)
			result.ArticlesSkipped++
			continue
		}
		title := im.clean(a.Title)
		if title == "" {
			result.errorf("article %d: empty title", a.ID)
			result.ArticlesSkipped++
			continue
		}

		base := util.Slugify(a.Slug)
		if base == "" {
			base = util.Slugify(title)
		}
		n, err := q.CountContentBySlug(ctx, kind, base)
		if err != nil {
			return fmt.Errorf("checking slug %q: %w", base, err)
		}
		if n > 0 && opts.SkipExisting {
			result.ArticlesSkipped++
			continue
		}
		slug, err := store.UniqueContentSlug(ctx, q, kind, base)
		if err != nil {
			return err
		}

		params := store.CreateContentItemParams{
			Kind:        kind,
			Title:       title,
			Slug:        slug,
			Excerpt:     im.clean(a.Excerpt.String),
			IsPublished: a.IsOnline(),
			PublishDate: a.PublishDate,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   now,
		}
		if params.CreatedAt.IsZero() {
			params.CreatedAt = now
		}
		if params.IsPublished && !params.PublishDate.Valid {
			params.PublishDate = sql.NullTime{Time: params.CreatedAt, Valid: true}
		}
		if params.PublishDate.Valid && params.PublishDate.Time.After(now) {
			params.IsPublished = false
			params.IsScheduled = a.IsOnline()
		}
		params.CategoryID = mapID(ids.categories, a.CategoryID)
		params.SubCategoryID = mapID(ids.categories, a.SubCategoryID)
		if params.SubCategoryID.Valid && !params.CategoryID.Valid {
			params.SubCategoryID = sql.NullInt64{}
		}

		item, err := q.CreateContentItem(ctx, params)
		if err != nil {
			return fmt.Errorf("creating item for article %d: %w", a.ID, err)
		}
		ids.articles[a.ID] = item.ID

		if a.ImagePath.Valid && strings.TrimSpace(a.ImagePath.String) != "" {
			m, err := im.linkImage(ctx, q, kind, item.ID, a, now)
			if err != nil {
				return err
			}
			if err := q.SetContentImage(ctx, item.ID, sql.NullInt64{Int64: m.ID, Valid: true}, now); err != nil {
				return fmt.Errorf("attaching image to item %d: %w", item.ID, err)
			}
			result.ImagesLinked++
		}
		result.ArticlesImported++
	}
	return nil
}

// linkImage records the legacy image URL as a media row owned by the
// imported item. The file itself stays where the legacy site serves it.
func (im *Importer) linkImage(ctx context.Context, q *store.Queries, kind string, itemID int64, a Article, now time.Time) (store.Medium, error) {
	p := "/" + strings.TrimLeft(strings.TrimSpace(a.ImagePath.String), "/")
	mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(p)))
	if mimeType == "" {
		mimeType = model.MimeTypeJPEG
	}
	m, err := q.CreateMedia(ctx, store.CreateMediaParams{
		Uuid:      uuid.NewString(),
		Folder:    folderFor(kind),
		TargetID:  itemID,
		Path:      p,
		MimeType:  mimeType,
		CreatedAt: now,
	})
	if err != nil {
		return m, fmt.Errorf("linking image of article %d: %w", a.ID, err)
	}
	return m, nil
}

func (im *Importer) importPositions(ctx context.Context, positions []Position, ids idMaps, result *Result) {
	for _, p := range positions {
		contentID, ok := ids.articles[p.ArticleID]
		if !ok {
			result.errorf("position %d/%d: article %d was not imported", p.BlockID, p.Position, p.ArticleID)
			continue
		}
		req := slots.PinRequest{
			ContentID: contentID,
			IsPinned:  true,
			BlockID:   p.BlockID,
			Position:  p.Position,
			Actor:     importActor,
		}
		if cat := mapID(ids.categories, p.CategoryID); cat.Valid {
			req.CategoryID = &cat.Int64
		}
		if sub := mapID(ids.categories, p.SubCategoryID); sub.Valid {
			req.SubCategoryID = &sub.Int64
		}
		if _, err := im.engine.SetPinState(ctx, req); err != nil {
			result.errorf("position %d/%d: %v", p.BlockID, p.Position, err)
			continue
		}
		result.PositionsImported++
	}
}

// clean strips markup and decodes entities.
func (im *Importer) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(im.policy.Sanitize(s)))
}

func mapID(m map[int64]int64, legacy sql.NullInt64) sql.NullInt64 {
	if !legacy.Valid {
		return sql.NullInt64{}
	}
	id, ok := m[legacy.Int64]
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func folderFor(kind string) string {
	switch kind {
	case model.KindVideo:
		return model.FolderVideos
	case model.KindGallery:
		return model.FolderGalleries
	default:
		return model.FolderArticles
	}
}

