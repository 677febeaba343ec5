// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/olegiv/newsdesk/internal/model"
)

func TestProcessImage_StoresUpload(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")

	if err := os.MkdirAll(filepath.Join(env.incomingDir, "batch"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(env.incomingDir, "batch", "photo.jpg")
	if err := imaging.Save(imaging.New(64, 48, color.NRGBA{R: 180, A: 255}), src); err != nil {
		t.Fatal(err)
	}

	rr := env.do(http.MethodPost, RouteImages, ImageRequest{
		Path: "batch/photo.jpg", ID: 12, Folder: model.FolderArticles,
	}, cookies)
	assertStatus(t, rr, http.StatusCreated)
	got := decodeData[MediaResponse](t, rr)
	if !strings.HasPrefix(got.URL, "/uploads/articles/12/") || got.MimeType != model.MimeTypeJPEG || got.ID == 0 {
		t.Errorf("media = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(env.uploadDir, "articles", "12", filepath.Base(got.URL))); err != nil {
		t.Errorf("stored file: %v", err)
	}
}

func TestProcessImage_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")

	tests := []struct {
		name string
		req  ImageRequest
		want int
	}{
		{"missing fields", ImageRequest{}, http.StatusBadRequest},
		{"escapes incoming dir", ImageRequest{Path: "../../etc/passwd", ID: 1, Folder: model.FolderArticles}, http.StatusBadRequest},
		{"missing file", ImageRequest{Path: "nope.jpg", ID: 1, Folder: model.FolderArticles}, http.StatusUnprocessableEntity},
		{"bad folder", ImageRequest{Path: "nope.jpg", ID: 1, Folder: "../x"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, RouteImages, tt.req, cookies)
			assertStatus(t, rr, tt.want)
		})
	}
}
