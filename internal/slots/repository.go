// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package slots places content into homepage blocks. Slot rows live in two
// tables, positions for unscoped blocks and category_positions for the
// category-scoped block; Repository hides that split from callers.
package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/newsdesk/internal/store"
)

// Scope narrows a scoped block to a category and, optionally, one of its
// subcategories. The zero Scope addresses unscoped blocks.
type Scope struct {
	CategoryID    *int64 `json:"category_id,omitempty"`
	SubCategoryID *int64 `json:"sub_category_id,omitempty"`
}

// IsZero reports whether no category is set.
func (s Scope) IsZero() bool {
	return s.CategoryID == nil
}

func (s Scope) subCategory() sql.NullInt64 {
	if s.SubCategoryID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *s.SubCategoryID, Valid: true}
}

func (s Scope) String() string {
	switch {
	case s.CategoryID == nil:
		return "global"
	case s.SubCategoryID == nil:
		return fmt.Sprintf("category %d", *s.CategoryID)
	default:
		return fmt.Sprintf("category %d/%d", *s.CategoryID, *s.SubCategoryID)
	}
}

// Slot is one provisioned row from either table.
type Slot struct {
	ID        int64
	BlockID   int64
	Position  int64
	Scope     Scope
	ContentID sql.NullInt64
	scoped    bool
}

// Scoped reports whether the slot lives in the category table.
func (s *Slot) Scoped() bool { return s.scoped }

// Holds reports whether the slot references contentID.
func (s *Slot) Holds(contentID int64) bool {
	return s.ContentID.Valid && s.ContentID.Int64 == contentID
}

func (s *Slot) same(o *Slot) bool {
	return o != nil && s.scoped == o.scoped && s.ID == o.ID
}

// Repository is the single logical view over both slot tables.
type Repository interface {
	// FindByPosition returns nil, nil when no row was provisioned for the
	// block, scope and position.
	FindByPosition(ctx context.Context, blockID, position int64, scope Scope) (*Slot, error)
	// FindByContent looks in both tables.
	FindByContent(ctx context.Context, contentID int64) (*Slot, error)
	// ListOccupied returns occupied slots ordered by position.
	ListOccupied(ctx context.Context, blockID int64, scope Scope) ([]Slot, error)
	Occupy(ctx context.Context, slot *Slot, contentID int64) error
	Vacate(ctx context.Context, slot *Slot) error
	// VacateContent clears contentID from both tables and returns the
	// number of rows released.
	VacateContent(ctx context.Context, contentID int64) (int64, error)
}

// table is one physical slot table.
type table interface {
	findByPosition(ctx context.Context, blockID, position int64, scope Scope) (*Slot, error)
	findByContent(ctx context.Context, contentID int64) (*Slot, error)
	listOccupied(ctx context.Context, blockID int64, scope Scope) ([]Slot, error)
	set(ctx context.Context, id int64, contentID sql.NullInt64) error
	clearContent(ctx context.Context, contentID int64) (int64, error)
}

type repository struct {
	generic  table
	category table
}

// NewRepository returns a Repository over q. Mutations must go through a
// transaction-bound q.
func NewRepository(q *store.Queries) Repository {
	return &repository{
		generic:  genericTable{q: q},
		category: categoryTable{q: q},
	}
}

func (r *repository) tableFor(scope Scope) table {
	if scope.IsZero() {
		return r.generic
	}
	return r.category
}

func (r *repository) slotTable(s *Slot) table {
	if s.scoped {
		return r.category
	}
	return r.generic
}

func (r *repository) FindByPosition(ctx context.Context, blockID, position int64, scope Scope) (*Slot, error) {
	return r.tableFor(scope).findByPosition(ctx, blockID, position, scope)
}

func (r *repository) FindByContent(ctx context.Context, contentID int64) (*Slot, error) {
	slot, err := r.generic.findByContent(ctx, contentID)
	if err != nil || slot != nil {
		return slot, err
	}
	return r.category.findByContent(ctx, contentID)
}

func (r *repository) ListOccupied(ctx context.Context, blockID int64, scope Scope) ([]Slot, error) {
	return r.tableFor(scope).listOccupied(ctx, blockID, scope)
}

func (r *repository) Occupy(ctx context.Context, slot *Slot, contentID int64) error {
	if slot.Holds(contentID) {
		return nil
	}
	if err := r.slotTable(slot).set(ctx, slot.ID, sql.NullInt64{Int64: contentID, Valid: true}); err != nil {
		return fmt.Errorf("occupying slot %d: %w", slot.ID, err)
	}
	slot.ContentID = sql.NullInt64{Int64: contentID, Valid: true}
	return nil
}

func (r *repository) Vacate(ctx context.Context, slot *Slot) error {
	if !slot.ContentID.Valid {
		return nil
	}
	if err := r.slotTable(slot).set(ctx, slot.ID, sql.NullInt64{}); err != nil {
		return fmt.Errorf("vacating slot %d: %w", slot.ID, err)
	}
	slot.ContentID = sql.NullInt64{}
	return nil
}

func (r *repository) VacateContent(ctx context.Context, contentID int64) (int64, error) {
	n, err := r.generic.clearContent(ctx, contentID)
	if err != nil {
		return 0, fmt.Errorf("clearing positions: %w", err)
	}
	m, err := r.category.clearContent(ctx, contentID)
	if err != nil {
		return 0, fmt.Errorf("clearing category positions: %w", err)
	}
	return n + m, nil
}

type genericTable struct {
	q *store.Queries
}

func fromPosition(p store.Position) *Slot {
	return &Slot{ID: p.ID, BlockID: p.BlockID, Position: p.Position, ContentID: p.ContentItemID}
}

func (t genericTable) findByPosition(ctx context.Context, blockID, position int64, _ Scope) (*Slot, error) {
	p, err := t.q.GetPositionBySlot(ctx, blockID, position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromPosition(p), nil
}

func (t genericTable) findByContent(ctx context.Context, contentID int64) (*Slot, error) {
	p, err := t.q.GetPositionByContent(ctx, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromPosition(p), nil
}

func (t genericTable) listOccupied(ctx context.Context, blockID int64, _ Scope) ([]Slot, error) {
	rows, err := t.q.ListOccupiedPositions(ctx, blockID)
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0, len(rows))
	for _, p := range rows {
		out = append(out, *fromPosition(p))
	}
	return out, nil
}

func (t genericTable) set(ctx context.Context, id int64, contentID sql.NullInt64) error {
	return t.q.SetPositionContent(ctx, id, contentID)
}

func (t genericTable) clearContent(ctx context.Context, contentID int64) (int64, error) {
	return t.q.ClearPositionsByContent(ctx, contentID)
}

type categoryTable struct {
	q *store.Queries
}

func fromCategoryPosition(p store.CategoryPosition) *Slot {
	categoryID := p.CategoryID
	s := &Slot{
		ID:        p.ID,
		BlockID:   p.BlockID,
		Position:  p.Position,
		Scope:     Scope{CategoryID: &categoryID},
		ContentID: p.ContentItemID,
		scoped:    true,
	}
	if p.SubCategoryID.Valid {
		sub := p.SubCategoryID.Int64
		s.Scope.SubCategoryID = &sub
	}
	return s
}

func (t categoryTable) findByPosition(ctx context.Context, blockID, position int64, scope Scope) (*Slot, error) {
	p, err := t.q.GetCategoryPositionBySlot(ctx, store.GetCategoryPositionBySlotParams{
		BlockID:       blockID,
		CategoryID:    *scope.CategoryID,
		SubCategoryID: scope.subCategory(),
		Position:      position,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromCategoryPosition(p), nil
}

func (t categoryTable) findByContent(ctx context.Context, contentID int64) (*Slot, error) {
	p, err := t.q.GetCategoryPositionByContent(ctx, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromCategoryPosition(p), nil
}

func (t categoryTable) listOccupied(ctx context.Context, blockID int64, scope Scope) ([]Slot, error) {
	rows, err := t.q.ListOccupiedCategoryPositions(ctx, store.ListOccupiedCategoryPositionsParams{
		BlockID:       blockID,
		CategoryID:    *scope.CategoryID,
		SubCategoryID: scope.subCategory(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0, len(rows))
	for _, p := range rows {
		out = append(out, *fromCategoryPosition(p))
	}
	return out, nil
}

func (t categoryTable) set(ctx context.Context, id int64, contentID sql.NullInt64) error {
	return t.q.SetCategoryPositionContent(ctx, id, contentID)
}

func (t categoryTable) clearContent(ctx context.Context, contentID int64) (int64, error) {
	return t.q.ClearCategoryPositionsByContent(ctx, contentID)
}
