// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/olegiv/newsdesk/internal/imaging"
	"github.com/olegiv/newsdesk/internal/middleware"
	"github.com/olegiv/newsdesk/internal/util"
)

// ImageRequest is the body of POST /images. Path is relative to the
// incoming directory.
type ImageRequest struct {
	Path      string `json:"path"`
	ID        int64  `json:"id"`
	Folder    string `json:"folder"`
	Watermark bool   `json:"watermark"`
}

// MediaResponse represents a stored image.
type MediaResponse struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	URL         string    `json:"url"`
	Folder      string    `json:"folder"`
	TargetID    int64     `json:"target_id"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	Watermarked bool      `json:"watermarked"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProcessImage handles POST /api/v1/images.
func (h *Handler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := map[string]string{}
	if strings.TrimSpace(req.Path) == "" {
		errs["path"] = "is required"
	}
	if req.ID <= 0 {
		errs["id"] = "must be a positive integer"
	}
	if req.Folder == "" {
		errs["folder"] = "is required"
	}
	if len(errs) > 0 {
		WriteBadRequest(w, "Validation failed", errs)
		return
	}

	src, err := util.SafeJoinPath(h.incomingDir, filepath.FromSlash(req.Path))
	if err != nil {
		WriteBadRequest(w, "Invalid path", map[string]string{"path": "must stay inside the incoming directory"})
		return
	}

	res, err := h.media.ProcessImage(r.Context(), imaging.Job{
		SourcePath: src,
		TargetID:   req.ID,
		Folder:     req.Folder,
		Watermark:  req.Watermark,
	}, middleware.Actor(r))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, MediaResponse{
		ID:          res.Media.ID,
		UUID:        res.Media.Uuid,
		URL:         res.URL,
		Folder:      res.Media.Folder,
		TargetID:    res.Media.TargetID,
		MimeType:    res.Media.MimeType,
		Size:        res.Media.Size,
		Watermarked: res.Media.Watermarked,
		CreatedAt:   res.Media.CreatedAt,
	})
}
