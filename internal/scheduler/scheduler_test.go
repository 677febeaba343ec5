// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk/internal/service"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/testutil"
)

type fakeContent struct {
	published atomic.Int32
	swept     atomic.Int32
	err       error
}

func (f *fakeContent) PublishDue(context.Context) (int, error) {
	f.published.Add(1)
	return 2, f.err
}

func (f *fakeContent) ReleaseExpiredLocks(context.Context) (int64, error) {
	f.swept.Add(1)
	return 1, f.err
}

type fakeEvents struct {
	olderThan time.Duration
}

func (f *fakeEvents) DeleteOldEvents(_ context.Context, olderThan time.Duration) error {
	f.olderThan = olderThan
	return nil
}

func TestScheduler_StartStop(t *testing.T) {
	content := &fakeContent{}
	s := New(content, &fakeEvents{}, testutil.TestLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	jobs := s.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "prune_events", jobs[0].Name)
	assert.Equal(t, "publish_scheduled", jobs[1].Name)
	assert.Equal(t, "release_locks", jobs[2].Name)
	for _, j := range jobs {
		assert.False(t, j.NextRun.IsZero(), j.Name)
		assert.True(t, j.LastRun.IsZero(), j.Name)
	}
}

func TestScheduler_Trigger(t *testing.T) {
	content := &fakeContent{}
	events := &fakeEvents{}
	s := New(content, events, testutil.TestLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.Trigger("publish_scheduled"))
	require.NoError(t, s.Trigger("release_locks"))
	require.NoError(t, s.Trigger("prune_events"))
	assert.Equal(t, int32(1), content.published.Load())
	assert.Equal(t, int32(1), content.swept.Load())
	assert.Equal(t, DefaultEventRetention, events.olderThan)

	assert.Error(t, s.Trigger("nope"))

	content.err = errors.New("database is locked")
	assert.Error(t, s.Trigger("publish_scheduled"))

	for _, j := range s.Jobs() {
		assert.False(t, j.LastRun.IsZero(), j.Name)
	}
}

func TestScheduler_WithoutEvents(t *testing.T) {
	s := New(&fakeContent{}, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.Jobs(), 2)
}

func TestScheduler_ReleasesLocksInDatabase(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	f := testutil.NewFixtures(t, db)
	u := f.User("editor")
	item := f.Item("stale")

	// A lock taken two hours ago has long expired.
	require.NoError(t, f.Q.LockContent(context.Background(), item.ID, u.ID, time.Now().UTC().Add(-2*time.Hour)))

	content := service.NewContentService(db, 30*time.Minute, nil, nil, testutil.TestLogger())
	s := New(content, service.NewEventService(db, testutil.TestLogger()), testutil.TestLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.Trigger("release_locks"))
	assert.False(t, f.Reload(item.ID).IsLocked)

	// A fresh lock survives the sweep.
	_, err := content.Lock(context.Background(), item.ID, slots.Actor{ID: u.ID, Name: u.Name})
	require.NoError(t, err)
	require.NoError(t, s.Trigger("release_locks"))
	assert.True(t, f.Reload(item.ID).IsLocked)
}
