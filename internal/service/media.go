// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olegiv/newsdesk/internal/apperr"
	"github.com/olegiv/newsdesk/internal/imaging"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
)

// ImageResult is a processed image and its media record.
type ImageResult struct {
	URL   string       `json:"url"`
	Media store.Medium `json:"media"`
}

// MediaService stores processed images and records them.
type MediaService struct {
	pipeline *imaging.Pipeline
	queries  *store.Queries
	audit    *AuditService
	logger   *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(db *sql.DB, pipeline *imaging.Pipeline, audit *AuditService, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{
		pipeline: pipeline,
		queries:  store.New(db),
		audit:    audit,
		logger:   logger,
	}
}

// ProcessImage runs job through the pipeline and records the stored file.
// Pipeline errors are returned unchanged.
func (s *MediaService) ProcessImage(ctx context.Context, job imaging.Job, actor slots.Actor) (*ImageResult, error) {
	res, err := s.pipeline.Process(ctx, job)
	if err != nil {
		s.logger.Warn("image processing failed",
			"category", model.EventCategoryMedia, "folder", job.Folder, "target_id", job.TargetID, "error", err)
		return nil, err
	}

	m, err := s.queries.CreateMedia(ctx, store.CreateMediaParams{
		Uuid:        res.UUID,
		Folder:      job.Folder,
		TargetID:    job.TargetID,
		Path:        res.URL,
		MimeType:    res.MimeType,
		Size:        res.Size,
		Watermarked: res.Watermarked,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		_ = os.Remove(res.Path)
		return nil, fmt.Errorf("recording media: %w", err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, model.ActionImage, actor.Name, fmt.Sprintf("stored image %s", res.URL))
	}
	return &ImageResult{URL: res.URL, Media: m}, nil
}

// Get returns a media record.
func (s *MediaService) Get(ctx context.Context, id int64) (*store.Medium, error) {
	m, err := s.queries.GetMediaByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("media %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting media %d: %w", id, err)
	}
	return &m, nil
}
