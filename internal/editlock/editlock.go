// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package editlock decides whether an editor may change a content item that
// another editor might be holding open.
package editlock

import (
	"time"

	"github.com/olegiv/newsdesk/internal/store"
)

// DefaultTimeout is used when no lock timeout is configured.
const DefaultTimeout = 30 * time.Minute

// Expired reports whether a lock taken at lockedAt has lapsed at now.
func Expired(lockedAt, now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return !lockedAt.Add(timeout).After(now)
}

// MayMutate reports whether actorID may change item at now. An unlocked
// item, the actor's own lock and an expired lock all allow the change.
// A lock without a timestamp is treated as expired.
func MayMutate(item *store.ContentItem, actorID int64, now time.Time, timeout time.Duration) bool {
	if !item.IsLocked || !item.LockedBy.Valid {
		return true
	}
	if item.LockedBy.Int64 == actorID {
		return true
	}
	if !item.LockedAt.Valid {
		return true
	}
	return Expired(item.LockedAt.Time, now, timeout)
}

// Holder returns the id of the user currently holding the lock, or 0 when
// the item is free at now.
func Holder(item *store.ContentItem, now time.Time, timeout time.Duration) int64 {
	if !item.IsLocked || !item.LockedBy.Valid || !item.LockedAt.Valid {
		return 0
	}
	if Expired(item.LockedAt.Time, now, timeout) {
		return 0
	}
	return item.LockedBy.Int64
}
