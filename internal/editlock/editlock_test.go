// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package editlock

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/newsdesk/internal/store"
)

func lockedItem(by int64, at time.Time) *store.ContentItem {
	return &store.ContentItem{
		IsLocked: true,
		LockedBy: sql.NullInt64{Int64: by, Valid: true},
		LockedAt: sql.NullTime{Time: at, Valid: true},
	}
}

func TestMayMutate(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	timeout := 15 * time.Minute

	tests := []struct {
		name  string
		item  *store.ContentItem
		actor int64
		want  bool
	}{
		{"unlocked", &store.ContentItem{}, 1, true},
		{"own lock", lockedItem(1, now), 1, true},
		{"other fresh lock", lockedItem(2, now.Add(-time.Minute)), 1, false},
		{"other lock at boundary", lockedItem(2, now.Add(-timeout)), 1, true},
		{"other expired lock", lockedItem(2, now.Add(-time.Hour)), 1, true},
		{"lock without timestamp", &store.ContentItem{IsLocked: true, LockedBy: sql.NullInt64{Int64: 2, Valid: true}}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MayMutate(tt.item, tt.actor, now, timeout))
		})
	}
}

func TestHolder(t *testing.T) {
	now := time.Now()
	assert.Equal(t, int64(0), Holder(&store.ContentItem{}, now, time.Minute))
	assert.Equal(t, int64(7), Holder(lockedItem(7, now), now, time.Minute))
	assert.Equal(t, int64(0), Holder(lockedItem(7, now.Add(-2*time.Minute)), now, time.Minute))
}

func TestExpired_DefaultTimeout(t *testing.T) {
	now := time.Now()
	assert.False(t, Expired(now.Add(-DefaultTimeout+time.Second), now, 0))
	assert.True(t, Expired(now.Add(-DefaultTimeout), now, 0))
}
