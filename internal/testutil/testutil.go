// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers and newsroom fixtures.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with migrations applied and the
// default blocks provisioned. Returns the database and a cleanup function
// that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "newsdesk-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	if err := store.Seed(context.Background(), db, false); err != nil {
		_ = db.Close()
		t.Fatalf("Seed: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// Fixtures creates rows for tests.
type Fixtures struct {
	t   *testing.T
	db  *sql.DB
	Q   *store.Queries
	seq atomic.Int64
	// Base is the publish date of the first item; each later item is one
	// minute newer.
	Base time.Time
}

// NewFixtures returns fixtures bound to db.
func NewFixtures(t *testing.T, db *sql.DB) *Fixtures {
	return &Fixtures{
		t:    t,
		db:   db,
		Q:    store.New(db),
		Base: time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC),
	}
}

// ItemOption customizes a content item fixture.
type ItemOption func(*store.CreateContentItemParams)

// Unpublished creates the item as a draft.
func Unpublished() ItemOption {
	return func(p *store.CreateContentItemParams) {
		p.IsPublished = false
		p.PublishDate = sql.NullTime{}
	}
}

// WithoutImage leaves image_id NULL.
func WithoutImage() ItemOption {
	return func(p *store.CreateContentItemParams) { p.ImageID = sql.NullInt64{} }
}

// InCategory files the item under a category and optional subcategory.
func InCategory(categoryID int64, subCategoryID *int64) ItemOption {
	return func(p *store.CreateContentItemParams) {
		p.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
		if subCategoryID != nil {
			p.SubCategoryID = sql.NullInt64{Int64: *subCategoryID, Valid: true}
		}
	}
}

// OfKind sets the content kind.
func OfKind(kind string) ItemOption {
	return func(p *store.CreateContentItemParams) { p.Kind = kind }
}

// PublishedAt overrides the publish date.
func PublishedAt(at time.Time) ItemOption {
	return func(p *store.CreateContentItemParams) {
		p.PublishDate = sql.NullTime{Time: at, Valid: true}
	}
}

// Item creates a published article with an image, newer than every item
// created before it.
func (f *Fixtures) Item(title string, opts ...ItemOption) store.ContentItem {
	f.t.Helper()
	n := f.seq.Add(1)
	published := f.Base.Add(time.Duration(n) * time.Minute)

	image := f.Image()
	p := store.CreateContentItemParams{
		Kind:        model.KindArticle,
		Title:       title,
		Slug:        fmt.Sprintf("item-%d", n),
		IsPublished: true,
		ImageID:     sql.NullInt64{Int64: image.ID, Valid: true},
		PublishDate: sql.NullTime{Time: published, Valid: true},
		CreatedAt:   published,
		UpdatedAt:   published,
	}
	for _, opt := range opts {
		opt(&p)
	}

	item, err := f.Q.CreateContentItem(context.Background(), p)
	if err != nil {
		f.t.Fatalf("CreateContentItem: %v", err)
	}
	return item
}

// Image creates a media row.
func (f *Fixtures) Image() store.Medium {
	f.t.Helper()
	n := f.seq.Add(1)
	m, err := f.Q.CreateMedia(context.Background(), store.CreateMediaParams{
		Uuid:      fmt.Sprintf("00000000-0000-0000-0000-%012d", n),
		Folder:    model.FolderArticles,
		TargetID:  n,
		Path:      fmt.Sprintf("/uploads/articles/%d/image.jpg", n),
		MimeType:  model.MimeTypeJPEG,
		CreatedAt: f.Base,
	})
	if err != nil {
		f.t.Fatalf("CreateMedia: %v", err)
	}
	return m
}

// Category creates a category, or a subcategory when parent is non-nil.
func (f *Fixtures) Category(name string, parent *int64) store.Category {
	f.t.Helper()
	p := store.CreateCategoryParams{
		Name:      name,
		Slug:      fmt.Sprintf("cat-%d", f.seq.Add(1)),
		CreatedAt: f.Base,
	}
	if parent != nil {
		p.ParentID = sql.NullInt64{Int64: *parent, Valid: true}
	}
	c, err := f.Q.CreateCategory(context.Background(), p)
	if err != nil {
		f.t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

// ScopedSlots provisions the scoped block's rows for a category scope.
func (f *Fixtures) ScopedSlots(categoryID int64, subCategoryID *int64) {
	f.t.Helper()
	sub := sql.NullInt64{}
	if subCategoryID != nil {
		sub = sql.NullInt64{Int64: *subCategoryID, Valid: true}
	}
	if err := store.ProvisionScopedSlots(context.Background(), f.Q, model.ScopedBlockID, categoryID, sub); err != nil {
		f.t.Fatalf("ProvisionScopedSlots: %v", err)
	}
}

// User creates an editor.
func (f *Fixtures) User(name string) store.User {
	f.t.Helper()
	u, err := f.Q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        fmt.Sprintf("%s-%d@example.com", name, f.seq.Add(1)),
		Name:         name,
		PasswordHash: "x",
		Role:         model.RoleEditor,
		CreatedAt:    f.Base,
		UpdatedAt:    f.Base,
	})
	if err != nil {
		f.t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// Reload fetches the item again.
func (f *Fixtures) Reload(id int64) store.ContentItem {
	f.t.Helper()
	item, err := f.Q.GetContentItem(context.Background(), id)
	if err != nil {
		f.t.Fatalf("GetContentItem(%d): %v", id, err)
	}
	return item
}

// SlotRows counts slot rows referencing the item across both tables.
func (f *Fixtures) SlotRows(id int64) int64 {
	f.t.Helper()
	n, err := f.Q.CountSlotRowsForContent(context.Background(), id)
	if err != nil {
		f.t.Fatalf("CountSlotRowsForContent: %v", err)
	}
	return n
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
