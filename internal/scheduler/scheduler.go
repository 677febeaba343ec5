// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the newsroom's periodic jobs: publishing
// scheduled items, releasing stale edit locks and pruning old events.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/newsdesk/internal/model"
)

// Default schedules.
const (
	PublishSchedule   = "* * * * *"
	LockSweepSchedule = "* * * * *"
	PruneSchedule     = "17 3 * * *"
)

// DefaultEventRetention is how long events are kept.
const DefaultEventRetention = 30 * 24 * time.Hour

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Content is the content workflow the jobs drive.
type Content interface {
	PublishDue(ctx context.Context) (int, error)
	ReleaseExpiredLocks(ctx context.Context) (int64, error)
}

// Events prunes the event log.
type Events interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) error
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run"`
	NextRun  time.Time `json:"next_run"`
}

type job struct {
	name     string
	schedule string
	entryID  cron.EntryID
	run      func(ctx context.Context) error
	lastRun  time.Time
}

// Scheduler handles the periodic jobs.
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	content   Content
	events    Events
	retention time.Duration

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a new scheduler instance. events may be nil to disable
// pruning.
func New(content Content, events Events, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		logger:    logger,
		content:   content,
		events:    events,
		retention: DefaultEventRetention,
		jobs:      make(map[string]*job),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if err := s.add("publish_scheduled", PublishSchedule, s.publishScheduled); err != nil {
		return err
	}
	if err := s.add("release_locks", LockSweepSchedule, s.releaseLocks); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.add("prune_events", PruneSchedule, s.pruneEvents); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) add(name, schedule string, run func(ctx context.Context) error) error {
	j := &job{name: name, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.execute(j); err != nil {
			s.logger.Error("scheduled job failed", "category", model.EventCategorySystem, "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("adding job %s: %w", name, err)
	}
	j.entryID = id

	s.mu.Lock()
	s.jobs[name] = j
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) execute(j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.mu.Lock()
	j.lastRun = time.Now().UTC()
	s.mu.Unlock()
	return j.run(ctx)
}

// Trigger runs a registered job now.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.execute(j)
}

// Jobs lists the registered jobs by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{
			Name:     j.name,
			Schedule: j.schedule,
			LastRun:  j.lastRun,
			NextRun:  s.cron.Entry(j.entryID).Next,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

func (s *Scheduler) publishScheduled(ctx context.Context) error {
	n, err := s.content.PublishDue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("published scheduled items", "count", n)
	}
	return nil
}

func (s *Scheduler) releaseLocks(ctx context.Context) error {
	n, err := s.content.ReleaseExpiredLocks(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("released expired edit locks", "count", n)
	}
	return nil
}

func (s *Scheduler) pruneEvents(ctx context.Context) error {
	return s.events.DeleteOldEvents(ctx, s.retention)
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
