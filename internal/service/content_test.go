// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk/internal/apperr"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/testutil"
)

func TestCreate_UniqueSlugs(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	first, err := env.content.Create(ctx, CreateContentInput{Kind: model.KindArticle, Title: "Élection présidentielle"}, env.editor)
	require.NoError(t, err)
	second, err := env.content.Create(ctx, CreateContentInput{Kind: model.KindArticle, Title: "Élection présidentielle"}, env.editor)
	require.NoError(t, err)
	video, err := env.content.Create(ctx, CreateContentInput{Kind: model.KindVideo, Title: "Élection présidentielle"}, env.editor)
	require.NoError(t, err)

	assert.Equal(t, "election-presidentielle", first.Slug)
	assert.Equal(t, "election-presidentielle-2", second.Slug)
	assert.Equal(t, "election-presidentielle", video.Slug)
	assert.False(t, first.IsPublished)
}

func TestCreate_Rejects(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	_, err := env.content.Create(ctx, CreateContentInput{Kind: model.KindArticle, Title: "  "}, env.editor)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	_, err = env.content.Create(ctx, CreateContentInput{Kind: "banner", Title: "Promo"}, env.editor)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestPublish(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	draft := env.f.Item("draft", testutil.Unpublished())
	item, err := env.content.Publish(ctx, draft.ID, env.editor)
	require.NoError(t, err)
	assert.True(t, item.IsPublished)
	assert.True(t, item.PublishDate.Valid)

	again, err := env.content.Publish(ctx, draft.ID, env.editor)
	require.NoError(t, err)
	assert.Equal(t, item.PublishDate.Time.Unix(), again.PublishDate.Time.Unix())

	_, err = env.content.Publish(ctx, 9999, env.editor)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUnpublishReleasesSlot(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	item := env.f.Item("headline")
	env.pin(t, item, model.BlockHeadline, 1)
	require.Equal(t, int64(1), env.f.SlotRows(item.ID))

	got, err := env.content.Unpublish(ctx, item.ID, env.editor)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.False(t, got.IsPinned)
	assert.Zero(t, env.f.SlotRows(item.ID))

	_, err = env.content.Unpublish(ctx, item.ID, env.editor)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestTrashReleasesScopedSlot(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	cat := env.f.Category("Politique", nil)
	env.f.ScopedSlots(cat.ID, nil)
	item := env.f.Item("scoped", testutil.InCategory(cat.ID, nil))

	_, err := env.home.SetPinState(ctx, slotsPin(item.ID, model.BlockActualites, 2, &cat.ID, env))
	require.NoError(t, err)
	require.Equal(t, int64(1), env.f.SlotRows(item.ID))

	got, err := env.content.Trash(ctx, item.ID, env.editor)
	require.NoError(t, err)
	assert.True(t, got.IsTrashed)
	assert.False(t, got.IsPublished)
	assert.False(t, got.IsPinned)
	assert.Zero(t, env.f.SlotRows(item.ID))

	_, err = env.content.Publish(ctx, item.ID, env.editor)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestLocking(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	item := env.f.Item("locked story")

	locked, err := env.content.Lock(ctx, item.ID, env.editor)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, env.editor.ID, locked.LockedBy.Int64)

	// The holder can keep working; others are refused.
	_, err = env.content.Lock(ctx, item.ID, env.editor)
	require.NoError(t, err)
	_, err = env.content.Lock(ctx, item.ID, env.other)
	assert.True(t, apperr.Is(err, apperr.KindLockConflict))
	_, err = env.content.Unpublish(ctx, item.ID, env.other)
	assert.True(t, apperr.Is(err, apperr.KindLockConflict))
	_, err = env.content.Unlock(ctx, item.ID, env.other)
	assert.True(t, apperr.Is(err, apperr.KindLockConflict))

	// Once the lock expires another editor may take over.
	base := env.content.now
	env.content.now = func() time.Time { return base().Add(31 * time.Minute) }
	taken, err := env.content.Lock(ctx, item.ID, env.other)
	require.NoError(t, err)
	assert.Equal(t, env.other.ID, taken.LockedBy.Int64)

	unlocked, err := env.content.Unlock(ctx, item.ID, env.other)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
	assert.False(t, unlocked.LockedBy.Valid)
}

func TestReleaseExpiredLocks(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	item := env.f.Item("stale lock")

	_, err := env.content.Lock(ctx, item.ID, env.editor)
	require.NoError(t, err)

	n, err := env.content.ReleaseExpiredLocks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	base := env.content.now
	env.content.now = func() time.Time { return base().Add(time.Hour) }
	n, err = env.content.ReleaseExpiredLocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, env.f.Reload(item.ID).IsLocked)
}

func TestPublishDue(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	at := time.Now().UTC().Add(time.Hour)
	scheduled, err := env.content.Create(ctx, CreateContentInput{Kind: model.KindArticle, Title: "Embargo", PublishAt: &at}, env.editor)
	require.NoError(t, err)
	require.True(t, scheduled.IsScheduled)

	n, err := env.content.PublishDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	base := env.content.now
	env.content.now = func() time.Time { return base().Add(2 * time.Hour) }
	n, err = env.content.PublishDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := env.f.Reload(scheduled.ID)
	assert.True(t, got.IsPublished)
	assert.False(t, got.IsScheduled)
	assert.Equal(t, at.Unix(), got.PublishDate.Time.Unix())
}
