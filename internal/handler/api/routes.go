// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/newsdesk/internal/middleware"
)

// Route patterns under /api/v1.
const (
	RouteLogin        = "/auth/login"
	RouteLogout       = "/auth/logout"
	RouteMe           = "/auth/me"
	RouteHome         = "/home"
	RouteBlock        = "/blocks/{id}"
	RouteContent      = "/content"
	RouteContentID    = "/content/{id}"
	RouteContentPin   = "/content/{id}/pin"
	RouteContentLock  = "/content/{id}/lock"
	RouteContentPub   = "/content/{id}/publish"
	RouteContentUnpub = "/content/{id}/unpublish"
	RouteContentTrash = "/content/{id}/trash"
	RouteImages       = "/images"
)

// Routes returns the API router. The caller mounts it under /api/v1
// behind session loading and CSRF protection.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestMeta)
	if h.rateLimit != nil {
		r.Use(h.rateLimit.Middleware())
	}

	r.With(h.login.Middleware()).Post(RouteLogin, h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(h.sm, h.db))

		r.Post(RouteLogout, h.Logout)
		r.Get(RouteMe, h.Me)

		r.Get(RouteHome, h.Home)
		r.Get(RouteBlock, h.Block)

		r.Post(RouteContent, h.CreateContent)
		r.Get(RouteContentID, h.GetContent)
		r.Put(RouteContentPin, h.SetPinState)
		r.Post(RouteContentPub, h.PublishContent)
		r.Post(RouteContentUnpub, h.UnpublishContent)
		r.Post(RouteContentTrash, h.TrashContent)
		r.Post(RouteContentLock, h.LockContent)
		r.Delete(RouteContentLock, h.UnlockContent)

		r.Post(RouteImages, h.ProcessImage)
	})

	return r
}
