// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/newsdesk/internal/cache"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/slots"
)

// Cache namespaces for resolved homepage views.
const (
	homeCachePrefix  = "home:"
	homeViewsPrefix  = homeCachePrefix + "views:"
	homeBlocksPrefix = homeCachePrefix + "block:"
)

// DefaultHomeCacheTTL bounds how stale a cached view can get when an
// invalidation is missed, for example on another instance without Redis.
const DefaultHomeCacheTTL = 30 * time.Second

// HomeService serves resolved homepage blocks through a cache and applies
// pin changes.
type HomeService struct {
	engine *slots.Engine
	views  *cache.TypedCache[[]slots.BlockView]
	blocks *cache.TypedCache[[]slots.Placement]
	audit  *AuditService
	logger *slog.Logger
}

// NewHomeService creates a HomeService. A nil cacher disables caching.
func NewHomeService(engine *slots.Engine, cacher cache.Cacher, ttl time.Duration, audit *AuditService, logger *slog.Logger) *HomeService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultHomeCacheTTL
	}
	s := &HomeService{engine: engine, audit: audit, logger: logger}
	if cacher != nil {
		s.views = cache.NewTypedCache[[]slots.BlockView](cacher, homeViewsPrefix, ttl)
		s.blocks = cache.NewTypedCache[[]slots.Placement](cacher, homeBlocksPrefix, ttl)
	}
	return s
}

func scopeKey(scope slots.Scope) string {
	var cat, sub int64
	if scope.CategoryID != nil {
		cat = *scope.CategoryID
	}
	if scope.SubCategoryID != nil {
		sub = *scope.SubCategoryID
	}
	return fmt.Sprintf("%d:%d", cat, sub)
}

// Home returns every block for the homepage, or for a category page when
// scope names a category.
func (s *HomeService) Home(ctx context.Context, scope slots.Scope) ([]slots.BlockView, error) {
	load := func() (*[]slots.BlockView, error) {
		views, err := s.engine.FetchHome(ctx, scope)
		if err != nil {
			return nil, err
		}
		return &views, nil
	}
	if s.views == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return *v, nil
	}
	v, err := s.views.GetOrSet(ctx, scopeKey(scope), load)
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// Block returns one resolved block.
func (s *HomeService) Block(ctx context.Context, blockID int64, scope slots.Scope) ([]slots.Placement, error) {
	load := func() (*[]slots.Placement, error) {
		items, err := s.engine.FetchBlock(ctx, blockID, scope)
		if err != nil {
			return nil, err
		}
		return &items, nil
	}
	if s.blocks == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return *v, nil
	}
	v, err := s.blocks.GetOrSet(ctx, fmt.Sprintf("%d:%s", blockID, scopeKey(scope)), load)
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// SetPinState pins or unpins an item, drops cached views and records the
// change in the audit log.
func (s *HomeService) SetPinState(ctx context.Context, req slots.PinRequest) (*slots.PinResult, error) {
	result, err := s.engine.SetPinState(ctx, req)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)

	if s.audit != nil {
		action, msg := model.ActionUnpin, fmt.Sprintf("unpinned %q", result.Title)
		if req.IsPinned {
			action = model.ActionPin
			msg = fmt.Sprintf("pinned %q to block %d position %d (%s)", result.Title, result.BlockID, req.Position, result.Scope)
			if result.DisplacedID != 0 {
				msg += fmt.Sprintf(", displacing item %d", result.DisplacedID)
			}
		}
		s.audit.Log(ctx, action, req.Actor.Name, msg)
	}
	return result, nil
}

// Invalidate drops every cached view.
func (s *HomeService) Invalidate(ctx context.Context) {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate home cache", "category", model.EventCategoryCache, "error", err)
	}
	if err := s.blocks.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate block cache", "category", model.EventCategoryCache, "error", err)
	}
}
