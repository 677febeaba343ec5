// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/newsdesk/internal/apperr"
	"github.com/olegiv/newsdesk/internal/editlock"
	"github.com/olegiv/newsdesk/internal/store"
)

// Actor identifies the editor performing a change.
type Actor struct {
	ID   int64
	Name string
}

// PinRequest pins an item into a block position or, with IsPinned false,
// takes it out of whatever slot holds it.
type PinRequest struct {
	ContentID     int64
	IsPinned      bool
	BlockID       int64
	Position      int64
	CategoryID    *int64
	SubCategoryID *int64
	Actor         Actor
}

// PinResult carries the refreshed block after a pin change.
type PinResult struct {
	Title   string      `json:"title"`
	BlockID int64       `json:"block_id,omitempty"`
	Scope   Scope       `json:"scope"`
	Items   []Placement `json:"items"`
	// DisplacedID is the item pushed out of the target slot, if any.
	DisplacedID int64 `json:"displaced_id,omitempty"`
}

// Engine serves the homepage read path and applies pin changes.
type Engine struct {
	db          *sql.DB
	queries     *store.Queries
	lockTimeout time.Duration
	now         func() time.Time
}

// NewEngine creates an Engine. lockTimeout is the edit lock lifetime.
func NewEngine(db *sql.DB, lockTimeout time.Duration) *Engine {
	return &Engine{
		db:          db,
		queries:     store.New(db),
		lockTimeout: lockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// FetchBlock resolves one block. The scoped block needs a category that
// exists; unscoped blocks ignore scope.
func (e *Engine) FetchBlock(ctx context.Context, blockID int64, scope Scope) ([]Placement, error) {
	block, err := getBlock(ctx, e.queries, blockID)
	if err != nil {
		return nil, err
	}
	scope, err = checkScope(ctx, e.queries, block, scope, apperr.KindNotFound)
	if err != nil {
		return nil, err
	}
	items, err := resolve(ctx, e.queries, block, scope)
	if err != nil {
		return nil, fmt.Errorf("resolving block %d: %w", blockID, err)
	}
	return items, nil
}

// FetchHome resolves every block. The scoped block is only included when
// scope names a category.
func (e *Engine) FetchHome(ctx context.Context, scope Scope) ([]BlockView, error) {
	blocks, err := e.queries.ListBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}

	views := make([]BlockView, 0, len(blocks))
	for _, block := range blocks {
		if block.IsScoped && scope.IsZero() {
			continue
		}
		blockScope, err := checkScope(ctx, e.queries, block, scope, apperr.KindNotFound)
		if err != nil {
			return nil, err
		}
		items, err := resolve(ctx, e.queries, block, blockScope)
		if err != nil {
			return nil, fmt.Errorf("resolving block %d: %w", block.ID, err)
		}
		views = append(views, BlockView{BlockID: block.ID, Name: block.Name, Kind: block.Kind, Items: items})
	}
	return views, nil
}

// SetPinState applies req in a single write transaction. Preconditions are
// checked in order: the item exists, the actor may edit it, it is
// published, an unpin targets a pinned item, a pin has an image, and the
// target block and position were provisioned for the scope.
func (e *Engine) SetPinState(ctx context.Context, req PinRequest) (*PinResult, error) {
	var result *PinResult
	err := store.RunInTx(ctx, e.db, func(q *store.Queries) error {
		var err error
		result, err = e.setPinState(ctx, q, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) setPinState(ctx context.Context, q *store.Queries, req PinRequest) (*PinResult, error) {
	now := e.now()

	item, err := q.GetContentItem(ctx, req.ContentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("content item %d not found", req.ContentID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting content item: %w", err)
	}

	if !editlock.MayMutate(&item, req.Actor.ID, now, e.lockTimeout) {
		return nil, apperr.LockConflict("%q is being edited by another user", item.Title)
	}
	if !item.IsPublished {
		return nil, apperr.InvalidState("%q is not published", item.Title)
	}
	if !req.IsPinned && !item.IsPinned {
		return nil, apperr.InvalidState("%q is not pinned", item.Title)
	}

	repo := NewRepository(q)
	if !req.IsPinned {
		return e.unpin(ctx, q, repo, &item, req, now)
	}

	if !item.ImageID.Valid {
		return nil, apperr.InvalidState("%q needs an image before it can be pinned", item.Title)
	}

	block, err := getBlock(ctx, q, req.BlockID)
	if err != nil {
		return nil, err
	}
	if block.Kind != item.Kind {
		return nil, apperr.InvalidState("block %q does not hold %s content", block.Name, item.Kind)
	}
	scope, err := checkScope(ctx, q, block, Scope{CategoryID: req.CategoryID, SubCategoryID: req.SubCategoryID}, apperr.KindInvalidState)
	if err != nil {
		return nil, err
	}

	slot, err := repo.FindByPosition(ctx, block.ID, req.Position, scope)
	if err != nil {
		return nil, fmt.Errorf("finding slot: %w", err)
	}
	if slot == nil || req.Position < 1 || req.Position > block.MaxPositions {
		if block.IsScoped {
			return nil, apperr.InvalidState("position %d is invalid for block %q in %s", req.Position, block.Name, scope)
		}
		return nil, apperr.InvalidState("position %d is invalid for block %q", req.Position, block.Name)
	}

	result := &PinResult{Title: item.Title, BlockID: block.ID, Scope: scope}

	// Push out whoever holds the target slot.
	if slot.ContentID.Valid && !slot.Holds(item.ID) {
		displaced := slot.ContentID.Int64
		if err := q.ClearContentPin(ctx, displaced, now); err != nil {
			return nil, fmt.Errorf("unpinning displaced item %d: %w", displaced, err)
		}
		if err := repo.Vacate(ctx, slot); err != nil {
			return nil, err
		}
		result.DisplacedID = displaced
	}

	// Release any other slot the item holds, in either table.
	if !slot.Holds(item.ID) {
		if _, err := repo.VacateContent(ctx, item.ID); err != nil {
			return nil, err
		}
	}

	if err := q.SetContentPinned(ctx, store.SetContentPinnedParams{
		IsPinned:  true,
		BlockID:   sql.NullInt64{Int64: block.ID, Valid: true},
		UpdatedAt: now,
		ID:        item.ID,
	}); err != nil {
		return nil, fmt.Errorf("pinning item: %w", err)
	}
	if err := repo.Occupy(ctx, slot, item.ID); err != nil {
		return nil, err
	}

	result.Items, err = resolve(ctx, q, block, scope)
	if err != nil {
		return nil, fmt.Errorf("resolving block %d: %w", block.ID, err)
	}
	return result, nil
}

func (e *Engine) unpin(ctx context.Context, q *store.Queries, repo Repository, item *store.ContentItem, req PinRequest, now time.Time) (*PinResult, error) {
	result := &PinResult{Title: item.Title}

	// The held slot decides which block gets refreshed.
	held, err := repo.FindByContent(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("finding slot for item %d: %w", item.ID, err)
	}
	switch {
	case held != nil:
		result.BlockID, result.Scope = held.BlockID, held.Scope
	case item.BlockID.Valid:
		result.BlockID = item.BlockID.Int64
	default:
		result.BlockID = req.BlockID
		result.Scope = Scope{CategoryID: req.CategoryID, SubCategoryID: req.SubCategoryID}
	}

	if err := q.ClearContentPin(ctx, item.ID, now); err != nil {
		return nil, fmt.Errorf("unpinning item: %w", err)
	}
	if _, err := repo.VacateContent(ctx, item.ID); err != nil {
		return nil, err
	}

	if result.BlockID == 0 {
		return result, nil
	}
	block, err := q.GetBlock(ctx, result.BlockID)
	if errors.Is(err, sql.ErrNoRows) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting block %d: %w", result.BlockID, err)
	}
	if block.IsScoped && result.Scope.IsZero() {
		return result, nil
	}
	if !block.IsScoped {
		result.Scope = Scope{}
	}
	result.Items, err = resolve(ctx, q, block, result.Scope)
	if err != nil {
		return nil, fmt.Errorf("resolving block %d: %w", block.ID, err)
	}
	return result, nil
}

// ClearContent takes contentID out of every slot and clears its pinned
// flag. Callers run it in the same transaction as the state change that
// makes the item ineligible, such as trash or unpublish.
func ClearContent(ctx context.Context, q *store.Queries, contentID int64, now time.Time) (int64, error) {
	released, err := NewRepository(q).VacateContent(ctx, contentID)
	if err != nil {
		return 0, err
	}
	if err := q.ClearContentPin(ctx, contentID, now); err != nil {
		return 0, fmt.Errorf("unpinning item %d: %w", contentID, err)
	}
	return released, nil
}

func getBlock(ctx context.Context, q *store.Queries, id int64) (store.Block, error) {
	block, err := q.GetBlock(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return block, apperr.NotFound("block %d not found", id)
	}
	if err != nil {
		return block, fmt.Errorf("getting block %d: %w", id, err)
	}
	return block, nil
}

// checkScope validates scope against block. Unscoped blocks always get the
// zero Scope. A scoped block without a category fails with missingKind;
// unknown categories and subcategories are NotFound.
func checkScope(ctx context.Context, q *store.Queries, block store.Block, scope Scope, missingKind apperr.Kind) (Scope, error) {
	if !block.IsScoped {
		return Scope{}, nil
	}
	if scope.IsZero() {
		return scope, apperr.New(missingKind, fmt.Sprintf("block %q requires a category", block.Name))
	}

	if _, err := q.GetCategory(ctx, *scope.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scope, apperr.NotFound("category %d not found", *scope.CategoryID)
		}
		return scope, fmt.Errorf("getting category: %w", err)
	}

	if scope.SubCategoryID != nil {
		sub, err := q.GetCategory(ctx, *scope.SubCategoryID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && (!sub.ParentID.Valid || sub.ParentID.Int64 != *scope.CategoryID)) {
			return scope, apperr.NotFound("subcategory %d not found in category %d", *scope.SubCategoryID, *scope.CategoryID)
		}
		if err != nil {
			return scope, fmt.Errorf("getting subcategory: %w", err)
		}
	}
	return scope, nil
}
