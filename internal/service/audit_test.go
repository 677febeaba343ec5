// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/testutil"
)

func TestAuditRecord(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAuditService(db, testutil.TestLogger())
	ctx := context.Background()

	at := time.Date(2020, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, svc.Record(ctx, AuditEntry{
		RequestID: "abc", IP: "10.1.1.1", Action: model.ActionLogin, Username: "marie", Message: "signed in", Timestamp: at,
	}))
	svc.Log(ctx, model.ActionLogout, "marie", "signed out")

	entries, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionLogout, entries[0].Action)
	assert.Empty(t, entries[0].RequestID)
	assert.Equal(t, "abc", entries[1].RequestID)
	assert.True(t, at.Equal(entries[1].CreatedAt))
}

func TestRequestMeta(t *testing.T) {
	assert.Equal(t, RequestMeta{}, RequestMetaFrom(context.Background()))
	ctx := WithRequestMeta(context.Background(), RequestMeta{RequestID: "r", IP: "ip"})
	assert.Equal(t, "r", RequestMetaFrom(ctx).RequestID)
}

func TestEventService(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db, testutil.TestLogger())
	ctx := context.Background()

	require.NoError(t, svc.LogWarning(ctx, model.EventCategoryMedia, "watermark missing", nil, "", map[string]any{"folder": "articles"}))
	require.NoError(t, svc.LogSystemEvent(ctx, model.EventLevelInfo, "started", nil))

	events, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	var media bool
	for _, e := range events {
		if e.Category == model.EventCategoryMedia {
			media = true
			assert.Equal(t, model.EventLevelWarning, e.Level)
			assert.JSONEq(t, `{"folder":"articles"}`, e.Metadata)
		}
	}
	assert.True(t, media)

	require.NoError(t, svc.DeleteOldEvents(ctx, -time.Minute))
	events, err = svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
