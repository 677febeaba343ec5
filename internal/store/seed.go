// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/newsdesk/internal/auth"
	"github.com/olegiv/newsdesk/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// DefaultBlocks is the homepage layout provisioned on startup.
var DefaultBlocks = []Block{
	{ID: model.BlockHeadline, Name: "À la une", Kind: model.KindArticle, MaxPositions: 5},
	{ID: model.BlockFeatured, Name: "Sélection de la rédaction", Kind: model.KindArticle, MaxPositions: 4},
	{ID: model.BlockActualites, Name: "Actualités", Kind: model.KindArticle, MaxPositions: 6, IsScoped: true},
	{ID: model.BlockVideos, Name: "Vidéos", Kind: model.KindVideo, MaxPositions: 4},
	{ID: model.BlockGalleries, Name: "Galeries", Kind: model.KindGallery, MaxPositions: 3},
}

// Seed provisions blocks and their unscoped slot rows, and creates the
// default admin user when doSeed is set and no user exists yet.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if err := RunInTx(ctx, db, func(q *Queries) error {
		return ProvisionBlocks(ctx, q, DefaultBlocks)
	}); err != nil {
		return fmt.Errorf("provisioning blocks: %w", err)
	}

	if !doSeed {
		return nil
	}

	queries := New(db)
	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		slog.Info("users already exist, skipping admin seed")
		return nil
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		Name:         DefaultAdminName,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", user.ID, "email", user.Email)
	return nil
}

// ProvisionBlocks upserts blocks and creates the generic slot rows
// 1..MaxPositions for every unscoped block.
func ProvisionBlocks(ctx context.Context, q *Queries, blocks []Block) error {
	for _, b := range blocks {
		if err := q.UpsertBlock(ctx, b); err != nil {
			return fmt.Errorf("upserting block %d: %w", b.ID, err)
		}
		if b.IsScoped {
			continue
		}
		for pos := int64(1); pos <= b.MaxPositions; pos++ {
			if err := q.CreatePosition(ctx, b.ID, pos); err != nil {
				return fmt.Errorf("creating position %d for block %d: %w", pos, b.ID, err)
			}
		}
	}
	return nil
}

// ProvisionScopedSlots creates the scoped slot rows 1..MaxPositions of a
// scoped block for one category, optionally narrowed to a subcategory.
func ProvisionScopedSlots(ctx context.Context, q *Queries, blockID, categoryID int64, subCategoryID sql.NullInt64) error {
	block, err := q.GetBlock(ctx, blockID)
	if err != nil {
		return fmt.Errorf("getting block %d: %w", blockID, err)
	}
	if !block.IsScoped {
		return errors.New("block is not category scoped")
	}
	for pos := int64(1); pos <= block.MaxPositions; pos++ {
		if err := q.CreateCategoryPosition(ctx, CreateCategoryPositionParams{
			BlockID:       blockID,
			Position:      pos,
			CategoryID:    categoryID,
			SubCategoryID: subCategoryID,
		}); err != nil {
			return fmt.Errorf("creating scoped position %d: %w", pos, err)
		}
	}
	return nil
}
