// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package slots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/testutil"
)

func TestRepository_FindByPosition(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	f := testutil.NewFixtures(t, db)
	repo := NewRepository(f.Q)
	ctx := context.Background()

	slot, err := repo.FindByPosition(ctx, model.BlockHeadline, 3, Scope{})
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.False(t, slot.Scoped())
	assert.Equal(t, int64(3), slot.Position)
	assert.False(t, slot.ContentID.Valid)

	slot, err = repo.FindByPosition(ctx, model.BlockHeadline, 99, Scope{})
	require.NoError(t, err)
	assert.Nil(t, slot)

	cat := f.Category("Économie", nil)
	scope := Scope{CategoryID: &cat.ID}
	slot, err = repo.FindByPosition(ctx, model.BlockActualites, 1, scope)
	require.NoError(t, err)
	assert.Nil(t, slot, "scoped rows are not provisioned yet")

	f.ScopedSlots(cat.ID, nil)
	slot, err = repo.FindByPosition(ctx, model.BlockActualites, 1, scope)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.True(t, slot.Scoped())
	assert.Equal(t, cat.ID, *slot.Scope.CategoryID)
	assert.Nil(t, slot.Scope.SubCategoryID)
}

func TestRepository_SubCategoryRowsAreSeparate(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	f := testutil.NewFixtures(t, db)
	repo := NewRepository(f.Q)
	ctx := context.Background()

	cat := f.Category("Sport", nil)
	sub := f.Category("Football", &cat.ID)
	f.ScopedSlots(cat.ID, &sub.ID)

	slot, err := repo.FindByPosition(ctx, model.BlockActualites, 1, Scope{CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Nil(t, slot, "category-level scope must not match subcategory rows")

	slot, err = repo.FindByPosition(ctx, model.BlockActualites, 1, Scope{CategoryID: &cat.ID, SubCategoryID: &sub.ID})
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, sub.ID, *slot.Scope.SubCategoryID)
}

func TestRepository_OccupyAndVacate(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	f := testutil.NewFixtures(t, db)
	repo := NewRepository(f.Q)
	ctx := context.Background()
	item := f.Item("story")

	slot, err := repo.FindByPosition(ctx, model.BlockFeatured, 2, Scope{})
	require.NoError(t, err)
	require.NoError(t, repo.Occupy(ctx, slot, item.ID))
	require.NoError(t, repo.Occupy(ctx, slot, item.ID))

	found, err := repo.FindByContent(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, slot.ID, found.ID)
	assert.True(t, found.Holds(item.ID))

	occupied, err := repo.ListOccupied(ctx, model.BlockFeatured, Scope{})
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	assert.Equal(t, int64(2), occupied[0].Position)

	require.NoError(t, repo.Vacate(ctx, slot))
	require.NoError(t, repo.Vacate(ctx, slot))
	found, err = repo.FindByContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_VacateContentCoversBothTables(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	f := testutil.NewFixtures(t, db)
	repo := NewRepository(f.Q)
	ctx := context.Background()
	item := f.Item("everywhere")

	cat := f.Category("Monde", nil)
	f.ScopedSlots(cat.ID, nil)

	generic, err := repo.FindByPosition(ctx, model.BlockHeadline, 1, Scope{})
	require.NoError(t, err)
	scoped, err := repo.FindByPosition(ctx, model.BlockActualites, 1, Scope{CategoryID: &cat.ID})
	require.NoError(t, err)

	// Bypasses the engine to build an inconsistent state.
	require.NoError(t, repo.Occupy(ctx, generic, item.ID))
	require.NoError(t, repo.Occupy(ctx, scoped, item.ID))
	assert.Equal(t, int64(2), f.SlotRows(item.ID))

	released, err := repo.VacateContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)
	assert.Zero(t, f.SlotRows(item.ID))
}

func TestRepository_FindByContentScoped(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	f := testutil.NewFixtures(t, db)
	repo := NewRepository(f.Q)
	ctx := context.Background()
	item := f.Item("regional")

	cat := f.Category("Régions", nil)
	f.ScopedSlots(cat.ID, nil)
	slot, err := repo.FindByPosition(ctx, model.BlockActualites, 4, Scope{CategoryID: &cat.ID})
	require.NoError(t, err)
	require.NoError(t, repo.Occupy(ctx, slot, item.ID))

	found, err := repo.FindByContent(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Scoped())
	assert.Equal(t, int64(4), found.Position)
}
