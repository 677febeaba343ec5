// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package slots

import (
	"context"
	"fmt"

	"github.com/olegiv/newsdesk/internal/store"
)

// FillCandidates returns up to count published items of the block's kind
// that are neither pinned nor slotted anywhere, newest first. For a scoped
// block the items must belong to the scope's category, and to its
// subcategory when one is given. Fewer than count items is not an error.
func FillCandidates(ctx context.Context, q *store.Queries, block store.Block, scope Scope, excludeIDs []int64, count int) ([]store.ContentItem, error) {
	if count <= 0 {
		return nil, nil
	}

	arg := store.ListFillCandidatesParams{
		Kind:       block.Kind,
		ExcludeIDs: excludeIDs,
		Limit:      int64(count),
	}
	if block.IsScoped && !scope.IsZero() {
		arg.CategoryID.Int64, arg.CategoryID.Valid = *scope.CategoryID, true
		arg.SubCategoryID = scope.subCategory()
	}

	items, err := q.ListFillCandidates(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("listing fill candidates for block %d: %w", block.ID, err)
	}
	return items, nil
}
