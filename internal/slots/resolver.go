// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package slots

import (
	"context"
	"sort"

	"github.com/olegiv/newsdesk/internal/store"
)

// Placement is one position of a resolved block. Item is nil for a gap
// nothing could fill.
type Placement struct {
	Position int64              `json:"position"`
	Pinned   bool               `json:"pinned"`
	Item     *store.ContentItem `json:"item"`
}

// BlockView is a resolved block as shown on the homepage.
type BlockView struct {
	BlockID int64       `json:"block_id"`
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Items   []Placement `json:"items"`
}

// EmptyPositions lists the positions 1..capacity not present in pinned.
func EmptyPositions(capacity int64, pinned map[int64]*store.ContentItem) []int64 {
	var empty []int64
	for pos := int64(1); pos <= capacity; pos++ {
		if _, ok := pinned[pos]; !ok {
			empty = append(empty, pos)
		}
	}
	return empty
}

// Assign merges pinned items, keyed by position, with fill candidates. The
// first candidate goes to the lowest empty position. Pinned entries outside
// 1..capacity are dropped, and the result always has capacity entries
// sorted by position.
func Assign(capacity int64, pinned map[int64]*store.ContentItem, candidates []store.ContentItem) []Placement {
	if capacity <= 0 {
		return []Placement{}
	}

	out := make([]Placement, 0, capacity)
	for pos, item := range pinned {
		if pos < 1 || pos > capacity {
			continue
		}
		out = append(out, Placement{Position: pos, Pinned: true, Item: item})
	}

	empty := EmptyPositions(capacity, pinned)
	for i, pos := range empty {
		p := Placement{Position: pos}
		if i < len(candidates) {
			item := candidates[i]
			p.Item = &item
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// resolve runs the read path for one block against q, which may be bound to
// a transaction so that a pin sees its own writes.
func resolve(ctx context.Context, q *store.Queries, block store.Block, scope Scope) ([]Placement, error) {
	if block.MaxPositions <= 0 {
		return []Placement{}, nil
	}

	repo := NewRepository(q)
	occupied, err := repo.ListOccupied(ctx, block.ID, scope)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(occupied))
	for _, s := range occupied {
		if s.Position <= block.MaxPositions {
			ids = append(ids, s.ContentID.Int64)
		}
	}
	items, err := q.ListContentByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*store.ContentItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	pinned := make(map[int64]*store.ContentItem, len(occupied))
	for _, s := range occupied {
		if item, ok := byID[s.ContentID.Int64]; ok && s.Position <= block.MaxPositions {
			pinned[s.Position] = item
		}
	}

	empty := EmptyPositions(block.MaxPositions, pinned)
	candidates, err := FillCandidates(ctx, q, block, scope, ids, len(empty))
	if err != nil {
		return nil, err
	}

	return Assign(block.MaxPositions, pinned, candidates), nil
}
