// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/newsdesk/internal/middleware"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/service"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/util"
)

// ContentResponse represents a content item in API responses.
type ContentResponse struct {
	ID            int64      `json:"id"`
	Kind          string     `json:"kind"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt,omitempty"`
	IsPublished   bool       `json:"is_published"`
	IsPinned      bool       `json:"is_pinned"`
	IsScheduled   bool       `json:"is_scheduled"`
	IsTrashed     bool       `json:"is_trashed"`
	IsLocked      bool       `json:"is_locked"`
	BlockID       *int64     `json:"block_id,omitempty"`
	ImageID       *int64     `json:"image_id,omitempty"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	SubCategoryID *int64     `json:"sub_category_id,omitempty"`
	LockedBy      *int64     `json:"locked_by,omitempty"`
	PublishDate   *time.Time `json:"publish_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlacementResponse is one resolved slot of a block.
type PlacementResponse struct {
	Position int64            `json:"position"`
	Pinned   bool             `json:"pinned"`
	Item     *ContentResponse `json:"item"`
}

// BlockResponse is a homepage block with its resolved items.
type BlockResponse struct {
	BlockID int64               `json:"block_id"`
	Name    string              `json:"name"`
	Kind    string              `json:"kind"`
	Items   []PlacementResponse `json:"items"`
}

// PinResponse is the outcome of a pin change.
type PinResponse struct {
	Title       string              `json:"title"`
	BlockID     int64               `json:"block_id,omitempty"`
	Scope       slots.Scope         `json:"scope"`
	Items       []PlacementResponse `json:"items"`
	DisplacedID int64               `json:"displaced_id,omitempty"`
}

func contentToResponse(c *store.ContentItem) *ContentResponse {
	if c == nil {
		return nil
	}
	resp := &ContentResponse{
		ID:            c.ID,
		Kind:          c.Kind,
		Title:         c.Title,
		Slug:          c.Slug,
		Excerpt:       c.Excerpt,
		IsPublished:   c.IsPublished,
		IsPinned:      c.IsPinned,
		IsScheduled:   c.IsScheduled,
		IsTrashed:     c.IsTrashed,
		IsLocked:      c.IsLocked,
		BlockID:       util.PtrFromNullInt64(c.BlockID),
		ImageID:       util.PtrFromNullInt64(c.ImageID),
		CategoryID:    util.PtrFromNullInt64(c.CategoryID),
		SubCategoryID: util.PtrFromNullInt64(c.SubCategoryID),
		LockedBy:      util.PtrFromNullInt64(c.LockedBy),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.PublishDate.Valid {
		t := c.PublishDate.Time
		resp.PublishDate = &t
	}
	return resp
}

func placementResponses(items []slots.Placement) []PlacementResponse {
	out := make([]PlacementResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PlacementResponse{
			Position: p.Position,
			Pinned:   p.Pinned,
			Item:     contentToResponse(p.Item),
		})
	}
	return out
}

// CreateContentRequest is the body of POST /content.
type CreateContentRequest struct {
	Kind          string     `json:"kind"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	ImageID       *int64     `json:"image_id"`
	CategoryID    *int64     `json:"category_id"`
	SubCategoryID *int64     `json:"sub_category_id"`
	PublishAt     *time.Time `json:"publish_at"`
}

// CreateContent handles POST /api/v1/content.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		errs["title"] = "is required"
	}
	if !model.IsValidKind(req.Kind) {
		errs["kind"] = "must be article, video or gallery"
	}
	if len(errs) > 0 {
		WriteBadRequest(w, "Validation failed", errs)
		return
	}

	item, err := h.content.Create(r.Context(), service.CreateContentInput{
		Kind:          req.Kind,
		Title:         req.Title,
		Excerpt:       req.Excerpt,
		ImageID:       req.ImageID,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		PublishAt:     req.PublishAt,
	}, middleware.Actor(r))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteCreated(w, contentToResponse(item))
}

// GetContent handles GET /api/v1/content/{id}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	item, err := h.content.Get(r.Context(), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, contentToResponse(item))
}

// PinRequest is the body of PUT /content/{id}/pin.
type PinRequest struct {
	IsPinned      bool   `json:"is_pinned"`
	BlockID       int64  `json:"block_id"`
	Position      int64  `json:"position"`
	CategoryID    *int64 `json:"category_id"`
	SubCategoryID *int64 `json:"sub_category_id"`
}

// SetPinState handles PUT /api/v1/content/{id}/pin.
func (h *Handler) SetPinState(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req PinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsPinned {
		errs := map[string]string{}
		if req.BlockID <= 0 {
			errs["block_id"] = "is required when pinning"
		}
		if req.Position <= 0 {
			errs["position"] = "must be a positive integer"
		}
		if len(errs) > 0 {
			WriteBadRequest(w, "Validation failed", errs)
			return
		}
	}

	res, err := h.home.SetPinState(r.Context(), slots.PinRequest{
		ContentID:     id,
		IsPinned:      req.IsPinned,
		BlockID:       req.BlockID,
		Position:      req.Position,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		Actor:         middleware.Actor(r),
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, PinResponse{
		Title:       res.Title,
		BlockID:     res.BlockID,
		Scope:       res.Scope,
		Items:       placementResponses(res.Items),
		DisplacedID: res.DisplacedID,
	})
}

type contentAction func(*service.ContentService, *http.Request, int64) (*store.ContentItem, error)

// transition wraps a single-item workflow action as a handler.
func (h *Handler) transition(action contentAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		item, err := action(h.content, r, id)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		WriteSuccess(w, contentToResponse(item))
	}
}

// PublishContent handles POST /api/v1/content/{id}/publish.
func (h *Handler) PublishContent(w http.ResponseWriter, r *http.Request) {
	h.transition(func(s *service.ContentService, r *http.Request, id int64) (*store.ContentItem, error) {
		return s.Publish(r.Context(), id, middleware.Actor(r))
	})(w, r)
}

// UnpublishContent handles POST /api/v1/content/{id}/unpublish.
func (h *Handler) UnpublishContent(w http.ResponseWriter, r *http.Request) {
	h.transition(func(s *service.ContentService, r *http.Request, id int64) (*store.ContentItem, error) {
		return s.Unpublish(r.Context(), id, middleware.Actor(r))
	})(w, r)
}

// TrashContent handles POST /api/v1/content/{id}/trash.
func (h *Handler) TrashContent(w http.ResponseWriter, r *http.Request) {
	h.transition(func(s *service.ContentService, r *http.Request, id int64) (*store.ContentItem, error) {
		return s.Trash(r.Context(), id, middleware.Actor(r))
	})(w, r)
}

// LockContent handles POST /api/v1/content/{id}/lock.
func (h *Handler) LockContent(w http.ResponseWriter, r *http.Request) {
	h.transition(func(s *service.ContentService, r *http.Request, id int64) (*store.ContentItem, error) {
		return s.Lock(r.Context(), id, middleware.Actor(r))
	})(w, r)
}

// UnlockContent handles DELETE /api/v1/content/{id}/lock.
func (h *Handler) UnlockContent(w http.ResponseWriter, r *http.Request) {
	h.transition(func(s *service.ContentService, r *http.Request, id int64) (*store.ContentItem, error) {
		return s.Unlock(r.Context(), id, middleware.Actor(r))
	})(w, r)
}
