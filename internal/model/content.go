// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds shared domain constants.
package model

// Content kinds. A block holds items of exactly one kind.
const (
	KindArticle = "article"
	KindVideo   = "video"
	KindGallery = "gallery"
)

// Well-known homepage blocks. Slot rows for every block are provisioned by
// seed data; block 3 is partitioned by category and subcategory.
const (
	BlockHeadline   int64 = 1
	BlockFeatured   int64 = 2
	BlockActualites int64 = 3
	BlockVideos     int64 = 4
	BlockGalleries  int64 = 5
)

// ScopedBlockID is the block whose slots live in the category-scoped table.
const ScopedBlockID = BlockActualites

// IsValidKind reports whether kind is a known content kind.
func IsValidKind(kind string) bool {
	switch kind {
	case KindArticle, KindVideo, KindGallery:
		return true
	default:
		return false
	}
}

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)
