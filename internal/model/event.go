// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryContent   = "content"
	EventCategoryPlacement = "placement"
	EventCategoryMedia     = "media"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
	EventCategoryImport    = "import"
)

// Audit actions recorded for editorial operations.
const (
	ActionCreate    = "create"
	ActionPin       = "pin"
	ActionUnpin     = "unpin"
	ActionPublish   = "publish"
	ActionUnpublish = "unpublish"
	ActionTrash     = "trash"
	ActionLock      = "lock"
	ActionUnlock    = "unlock"
	ActionImage     = "image"
	ActionLogin     = "login"
	ActionLogout    = "logout"
)
