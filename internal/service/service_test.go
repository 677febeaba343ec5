// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk/internal/cache"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/testutil"
)

type serviceEnv struct {
	f       *testutil.Fixtures
	audit   *AuditService
	home    *HomeService
	content *ContentService
	editor  slots.Actor
	other   slots.Actor
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLogger()
	f := testutil.NewFixtures(t, db)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	audit := NewAuditService(db, logger)
	home := NewHomeService(slots.NewEngine(db, 30*time.Minute), mem, time.Minute, audit, logger)

	ed, other := f.User("editor"), f.User("other")
	return &serviceEnv{
		f:       f,
		audit:   audit,
		home:    home,
		content: NewContentService(db, 30*time.Minute, home, audit, logger),
		editor:  slots.Actor{ID: ed.ID, Name: ed.Name},
		other:   slots.Actor{ID: other.ID, Name: other.Name},
	}
}

func (e *serviceEnv) pin(t *testing.T, item store.ContentItem, blockID, position int64) *slots.PinResult {
	t.Helper()
	res, err := e.home.SetPinState(context.Background(), slots.PinRequest{
		ContentID: item.ID, IsPinned: true, BlockID: blockID, Position: position, Actor: e.editor,
	})
	require.NoError(t, err)
	return res
}
