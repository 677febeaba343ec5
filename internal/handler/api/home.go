// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/olegiv/newsdesk/internal/slots"
)

// parseScope reads category_id and sub_category_id from the query string.
// A sub category without a category is rejected.
func parseScope(r *http.Request) (slots.Scope, map[string]string) {
	var scope slots.Scope
	errs := map[string]string{}
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  **int64
	}{
		{"category_id", &scope.CategoryID},
		{"sub_category_id", &scope.SubCategoryID},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			errs[f.name] = "must be a positive integer"
			continue
		}
		*f.dst = &v
	}
	if scope.SubCategoryID != nil && scope.CategoryID == nil {
		errs["sub_category_id"] = "requires category_id"
	}
	if len(errs) > 0 {
		return scope, errs
	}
	return scope, nil
}

// Home handles GET /api/v1/home.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	scope, errs := parseScope(r)
	if errs != nil {
		WriteBadRequest(w, "Invalid scope", errs)
		return
	}
	views, err := h.home.Home(r.Context(), scope)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	out := make([]BlockResponse, 0, len(views))
	for _, v := range views {
		out = append(out, BlockResponse{
			BlockID: v.BlockID,
			Name:    v.Name,
			Kind:    v.Kind,
			Items:   placementResponses(v.Items),
		})
	}
	WriteSuccess(w, out)
}

// Block handles GET /api/v1/blocks/{id}.
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	scope, errs := parseScope(r)
	if errs != nil {
		WriteBadRequest(w, "Invalid scope", errs)
		return
	}
	items, err := h.home.Block(r.Context(), id, scope)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	WriteSuccess(w, placementResponses(items))
}
