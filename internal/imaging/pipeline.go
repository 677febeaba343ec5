// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging optimizes uploaded images for the web. Conversions run on
// a fixed pool of workers, each bounded by a size-scaled timeout.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/olegiv/newsdesk/internal/apperr"
	"github.com/olegiv/newsdesk/internal/util"
)

// ErrPipelineStopped is returned for jobs submitted after Stop.
var ErrPipelineStopped = errors.New("image pipeline stopped")

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Config holds pipeline configuration.
type Config struct {
	// UploadDir is where processed files are stored.
	UploadDir string
	// URLPrefix is prepended to stored paths, usually "/uploads".
	URLPrefix string
	// Workers caps concurrent conversions. Zero or anything above
	// min(4, NumCPU) is clamped to that.
	Workers int
	// WatermarkPath is the overlay image. Watermark requests are refused
	// when it is empty.
	WatermarkPath string
	// Timeout overrides the size-scaled budget of converted jobs.
	Timeout func(size int64) time.Duration
}

// MaxWorkers is the pool size used when Config.Workers is unset.
func MaxWorkers() int {
	return min(4, runtime.NumCPU())
}

// Job is one image to process.
type Job struct {
	SourcePath string
	TargetID   int64
	Folder     string
	Watermark  bool
}

// Result describes a stored image.
type Result struct {
	URL         string
	Path        string
	UUID        string
	MimeType    string
	Size        int64
	Watermarked bool
	Optimized   bool
}

// task is a job handed to a worker. The worker commits its output only
// while the caller is still waiting for it.
type task struct {
	ctx    context.Context
	job    Job
	plan   Plan
	dest   string
	result chan taskResult

	mu        sync.Mutex
	abandoned bool
	committed bool
}

type taskResult struct {
	size int64
	err  error
}

// Pipeline processes images.
type Pipeline struct {
	cfg       Config
	logger    *slog.Logger
	watermark image.Image
	queue     chan *task
	workers   int
	wg        sync.WaitGroup
	done      chan struct{}
	mu        sync.RWMutex
	running   bool
}

// NewPipeline creates a pipeline and loads the watermark, if configured.
func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/uploads"
	}
	workers := cfg.Workers
	if workers <= 0 || workers > MaxWorkers() {
		workers = MaxWorkers()
	}

	p := &Pipeline{
		cfg:     cfg,
		logger:  logger,
		queue:   make(chan *task),
		workers: workers,
		done:    make(chan struct{}),
	}

	if cfg.WatermarkPath != "" {
		wm, err := imaging.Open(cfg.WatermarkPath)
		if err != nil {
			return nil, fmt.Errorf("loading watermark: %w", err)
		}
		p.watermark = wm
	}
	return p, nil
}

// Start launches the workers.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	p.logger.Info("starting image pipeline", "workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops accepting jobs and waits for running conversions to end.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
	p.logger.Info("image pipeline stopped")
}

// Workers returns the pool size.
func (p *Pipeline) Workers() int { return p.workers }

// Process stores job.SourcePath under
// <UploadDir>/<folder>/<targetID>/<uuid>.<ext> and returns its URL. The
// source file is removed on every exit path. Failures and timeouts leave
// no output behind and are reported as processing failures.
func (p *Pipeline) Process(ctx context.Context, job Job) (*Result, error) {
	defer func() {
		if err := os.Remove(job.SourcePath); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("failed to remove temp image", "path", job.SourcePath, "error", err)
		}
	}()

	if !folderPattern.MatchString(job.Folder) || job.TargetID <= 0 {
		return nil, apperr.ProcessingFailure("invalid image destination", fmt.Errorf("folder %q target %d", job.Folder, job.TargetID))
	}

	info, err := os.Stat(job.SourcePath)
	if err != nil {
		return nil, apperr.ProcessingFailure("image not found", err)
	}
	format, err := sniffFile(job.SourcePath)
	if err != nil {
		return nil, apperr.ProcessingFailure("image could not be read", err)
	}
	if format == "" {
		return nil, apperr.ProcessingFailure("unsupported image format", nil)
	}

	plan := NewPlan(format, info.Size(), job.Watermark)
	if p.cfg.Timeout != nil {
		plan.Timeout = p.cfg.Timeout(info.Size())
	}
	if plan.Watermark && p.watermark == nil {
		return nil, apperr.ProcessingFailure("watermark is not configured", nil)
	}

	dir, err := util.SafeJoinPath(p.cfg.UploadDir, job.Folder, strconv.FormatInt(job.TargetID, 10))
	if err != nil {
		return nil, apperr.ProcessingFailure("invalid image destination", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.ProcessingFailure("could not create image directory", err)
	}

	id := uuid.NewString()
	res := &Result{UUID: id}

	if plan.Skip {
		name := id + "." + formatExt(format)
		dest := filepath.Join(dir, name)
		if err := moveFile(job.SourcePath, dest); err != nil {
			return nil, apperr.ProcessingFailure("could not store image", err)
		}
		res.Path, res.Size, res.MimeType = dest, info.Size(), formatMimeType(format)
		res.URL = p.url(job, name)
		p.logger.Debug("stored image without conversion", "path", dest, "format", format, "size", info.Size())
		return res, nil
	}

	out, err := p.run(ctx, job, plan, dir, id)
	if err != nil {
		return nil, err
	}
	out.URL = p.url(job, filepath.Base(out.Path))
	return out, nil
}

func (p *Pipeline) url(job Job, name string) string {
	return path.Join(p.cfg.URLPrefix, job.Folder, strconv.FormatInt(job.TargetID, 10), name)
}

// run hands the job to a worker and waits for it. The budget starts once a
// worker has taken the job; waiting for a free worker is bounded by ctx
// only.
func (p *Pipeline) run(ctx context.Context, job Job, plan Plan, dir, id string) (*Result, error) {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := &task{
		ctx:    jobCtx,
		job:    job,
		plan:   plan,
		dest:   filepath.Join(dir, id),
		result: make(chan taskResult, 1),
	}

	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return nil, apperr.ProcessingFailure("image pipeline is not running", ErrPipelineStopped)
	}

	select {
	case p.queue <- t:
	case <-ctx.Done():
		return nil, apperr.ProcessingFailure("image processing cancelled", ctx.Err())
	case <-p.done:
		return nil, apperr.ProcessingFailure("image pipeline is not running", ErrPipelineStopped)
	}

	timer := time.NewTimer(plan.Timeout)
	defer timer.Stop()

	select {
	case r := <-t.result:
		if r.err != nil {
			return nil, apperr.ProcessingFailure("image processing failed", r.err)
		}
		t.mu.Lock()
		dest := t.dest
		t.mu.Unlock()
		return &Result{
			Path:        dest,
			UUID:        id,
			MimeType:    formatMimeType(FormatWebP),
			Size:        r.size,
			Watermarked: plan.Watermark,
			Optimized:   true,
		}, nil
	case <-timer.C:
		p.abandon(t)
		p.logger.Warn("image processing timed out", "source", job.SourcePath, "timeout", plan.Timeout)
		return nil, apperr.ProcessingFailure("image processing timed out", context.DeadlineExceeded)
	case <-ctx.Done():
		p.abandon(t)
		return nil, apperr.ProcessingFailure("image processing cancelled", ctx.Err())
	}
}

// abandon marks t as given up and removes its output if the worker already
// committed it. A later commit sees the flag and discards its file.
func (p *Pipeline) abandon(t *task) {
	t.mu.Lock()
	t.abandoned = true
	committed, dest := t.committed, t.dest
	t.mu.Unlock()
	if committed {
		_ = os.Remove(dest)
	}
}

func (p *Pipeline) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("image worker started", "worker_id", id)

	for {
		select {
		case <-p.done:
			p.logger.Debug("image worker stopping", "worker_id", id)
			return
		case t := <-p.queue:
			size, err := p.convert(t)
			t.result <- taskResult{size: size, err: err}
		}
	}
}

// convert decodes, resizes, watermarks and encodes t's source. The output
// is written to a temp file and renamed into place only if the caller has
// not given up on the task.
func (p *Pipeline) convert(t *task) (size int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("image conversion panicked: %v", r)
		}
	}()

	if err := t.ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(t.job.SourcePath)
	if err != nil {
		return 0, fmt.Errorf("reading source: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	if err := t.ctx.Err(); err != nil {
		return 0, err
	}

	b := img.Bounds()
	if b.Dx() > t.plan.MaxDim || b.Dy() > t.plan.MaxDim {
		img = imaging.Fit(img, t.plan.MaxDim, t.plan.MaxDim, imaging.Lanczos)
	}

	if t.plan.Watermark {
		b = img.Bounds()
		wm := imaging.Resize(p.watermark, b.Dx(), b.Dy(), imaging.Lanczos)
		img = imaging.Overlay(img, wm, image.Pt(0, 0), watermarkOpacity)
	}

	if err := t.ctx.Err(); err != nil {
		return 0, err
	}

	out, err := encode(img, t.plan.Quality)
	if err != nil {
		return 0, fmt.Errorf("encoding image: %w", err)
	}

	return p.commit(t, FormatWebP, out)
}

func (p *Pipeline) commit(t *task, format string, data []byte) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(t.dest), ".processing-*")
	if err != nil {
		return 0, fmt.Errorf("creating output: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("writing output: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.abandoned {
		_ = os.Remove(tmpPath)
		return 0, context.DeadlineExceeded
	}
	dest := t.dest + "." + formatExt(format)
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("storing output: %w", err)
	}
	t.dest = dest
	t.committed = true
	return int64(len(data)), nil
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
