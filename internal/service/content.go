// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/newsdesk/internal/apperr"
	"github.com/olegiv/newsdesk/internal/editlock"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/util"
)

// CreateContentInput describes a new content item. Items are created as
// drafts; a PublishAt in the future schedules them instead.
type CreateContentInput struct {
	Kind          string
	Title         string
	Excerpt       string
	ImageID       *int64
	CategoryID    *int64
	SubCategoryID *int64
	PublishAt     *time.Time
}

// ContentService runs the editorial workflow. Every change that makes an
// item ineligible for the homepage releases its slot in the same
// transaction.
type ContentService struct {
	db          *sql.DB
	queries     *store.Queries
	lockTimeout time.Duration
	home        *HomeService
	audit       *AuditService
	logger      *slog.Logger
	now         func() time.Time
}

// NewContentService creates a ContentService. home and audit may be nil.
func NewContentService(db *sql.DB, lockTimeout time.Duration, home *HomeService, audit *AuditService, logger *slog.Logger) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		db:          db,
		queries:     store.New(db),
		lockTimeout: lockTimeout,
		home:        home,
		audit:       audit,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Get returns an item.
func (s *ContentService) Get(ctx context.Context, id int64) (*store.ContentItem, error) {
	return getItem(ctx, s.queries, id)
}

// Create stores a draft with a slug unique within its kind.
func (s *ContentService) Create(ctx context.Context, in CreateContentInput, actor slots.Actor) (*store.ContentItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.InvalidState("title is required")
	}
	if !model.IsValidKind(in.Kind) {
		return nil, apperr.InvalidState("unknown content kind %q", in.Kind)
	}

	base := util.Slugify(in.Title)
	if base == "" {
		base = in.Kind
	}

	now := s.now()
	var item store.ContentItem
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		slug, err := store.UniqueContentSlug(ctx, q, in.Kind, base)
		if err != nil {
			return err
		}
		params := store.CreateContentItemParams{
			Kind:          in.Kind,
			Title:         in.Title,
			Slug:          slug,
			Excerpt:       in.Excerpt,
			ImageID:       util.NullInt64FromPtr(in.ImageID),
			CategoryID:    util.NullInt64FromPtr(in.CategoryID),
			SubCategoryID: util.NullInt64FromPtr(in.SubCategoryID),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.PublishAt != nil {
			params.PublishDate = sql.NullTime{Time: in.PublishAt.UTC(), Valid: true}
			params.IsScheduled = in.PublishAt.After(now)
		}
		item, err = q.CreateContentItem(ctx, params)
		if err != nil {
			return fmt.Errorf("creating content item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, model.ActionCreate, actor, fmt.Sprintf("created %s %q", item.Kind, item.Title))
	return &item, nil
}

// Publish makes an item eligible for the homepage. Publishing a
// published item is a no-op.
func (s *ContentService) Publish(ctx context.Context, id int64, actor slots.Actor) (*store.ContentItem, error) {
	item, err := s.mutate(ctx, id, actor, func(q *store.Queries, item *store.ContentItem, now time.Time) error {
		if item.IsTrashed {
			return apperr.InvalidState("%q is in the trash", item.Title)
		}
		if item.IsPublished {
			return nil
		}
		return q.SetContentPublished(ctx, store.SetContentPublishedParams{
			IsPublished: true,
			PublishDate: sql.NullTime{Time: now, Valid: !item.PublishDate.Valid || item.PublishDate.Time.After(now)},
			UpdatedAt:   now,
			ID:          item.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, model.ActionPublish, actor, item)
	return item, nil
}

// Unpublish takes an item off the site and out of any slot it holds.
func (s *ContentService) Unpublish(ctx context.Context, id int64, actor slots.Actor) (*store.ContentItem, error) {
	item, err := s.mutate(ctx, id, actor, func(q *store.Queries, item *store.ContentItem, now time.Time) error {
		if !item.IsPublished {
			return apperr.InvalidState("%q is not published", item.Title)
		}
		if _, err := slots.ClearContent(ctx, q, item.ID, now); err != nil {
			return err
		}
		return q.SetContentPublished(ctx, store.SetContentPublishedParams{
			IsPublished: false,
			UpdatedAt:   now,
			ID:          item.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, model.ActionUnpublish, actor, item)
	return item, nil
}

// Trash moves an item to the trash, releasing any slot it holds.
func (s *ContentService) Trash(ctx context.Context, id int64, actor slots.Actor) (*store.ContentItem, error) {
	item, err := s.mutate(ctx, id, actor, func(q *store.Queries, item *store.ContentItem, now time.Time) error {
		if item.IsTrashed {
			return nil
		}
		if _, err := slots.ClearContent(ctx, q, item.ID, now); err != nil {
			return err
		}
		return q.SetContentTrashed(ctx, item.ID, now)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, model.ActionTrash, actor, item)
	return item, nil
}

// Lock takes the edit lock for actor, or refreshes it when actor already
// holds it.
func (s *ContentService) Lock(ctx context.Context, id int64, actor slots.Actor) (*store.ContentItem, error) {
	item, err := s.mutate(ctx, id, actor, func(q *store.Queries, item *store.ContentItem, now time.Time) error {
		return q.LockContent(ctx, item.ID, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, model.ActionLock, actor, fmt.Sprintf("locked %q", item.Title))
	return item, nil
}

// Unlock releases the edit lock. Releasing a lock held by someone else
// is only allowed once it has expired.
func (s *ContentService) Unlock(ctx context.Context, id int64, actor slots.Actor) (*store.ContentItem, error) {
	item, err := s.mutate(ctx, id, actor, func(q *store.Queries, item *store.ContentItem, _ time.Time) error {
		if !item.IsLocked {
			return nil
		}
		return q.UnlockContent(ctx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, model.ActionUnlock, actor, fmt.Sprintf("unlocked %q", item.Title))
	return item, nil
}

// PublishDue publishes scheduled items whose publish date has passed and
// returns how many were published.
func (s *ContentService) PublishDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.queries.ListScheduledDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing scheduled items: %w", err)
	}

	published := 0
	for _, item := range due {
		err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
			return q.SetContentPublished(ctx, store.SetContentPublishedParams{
				IsPublished: true,
				UpdatedAt:   now,
				ID:          item.ID,
			})
		})
		if err != nil {
			s.logger.Error("failed to publish scheduled item", "content_id", item.ID, "error", err)
			continue
		}
		published++
	}
	if published > 0 {
		s.invalidate(ctx)
	}
	return published, nil
}

// ReleaseExpiredLocks clears edit locks older than the lock timeout.
func (s *ContentService) ReleaseExpiredLocks(ctx context.Context) (int64, error) {
	timeout := s.lockTimeout
	if timeout <= 0 {
		timeout = editlock.DefaultTimeout
	}
	return s.queries.ReleaseExpiredLocks(ctx, s.now().Add(-timeout))
}

// mutate loads the item inside a write transaction, checks the edit lock
// and applies fn. It returns the item as committed.
func (s *ContentService) mutate(ctx context.Context, id int64, actor slots.Actor, fn func(q *store.Queries, item *store.ContentItem, now time.Time) error) (*store.ContentItem, error) {
	now := s.now()
	var updated *store.ContentItem
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		item, err := getItem(ctx, q, id)
		if err != nil {
			return err
		}
		if !editlock.MayMutate(item, actor.ID, now, s.lockTimeout) {
			return apperr.LockConflict("%q is being edited by another user", item.Title)
		}
		if err := fn(q, item, now); err != nil {
			return err
		}
		updated, err = getItem(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getItem(ctx context.Context, q *store.Queries, id int64) (*store.ContentItem, error) {
	item, err := q.GetContentItem(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("content item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting content item %d: %w", id, err)
	}
	return &item, nil
}

func (s *ContentService) changed(ctx context.Context, action string, actor slots.Actor, item *store.ContentItem) {
	s.invalidate(ctx)
	s.record(ctx, action, actor, fmt.Sprintf("%s %q", action, item.Title))
}

func (s *ContentService) invalidate(ctx context.Context) {
	if s.home != nil {
		s.home.Invalidate(ctx)
	}
}

func (s *ContentService) record(ctx context.Context, action string, actor slots.Actor, message string) {
	if s.audit != nil {
		s.audit.Log(ctx, action, actor.Name, message)
	}
}
