// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/newsdesk/internal/cache"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/session"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/testutil"
	"github.com/olegiv/newsdesk/internal/version"
)

func TestHealth_Public(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, nil, nil, t.TempDir(), version.Info{Version: "v1"})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != StatusHealthy {
		t.Errorf("status = %v", resp["status"])
	}
	if _, ok := resp["checks"]; ok {
		t.Error("anonymous callers must not see check details")
	}
}

func TestHealth_AdminDetails(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	sm := session.New(db, true, time.Hour)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	defer func() { _ = mem.Close() }()
	h := NewHealthHandler(db, sm, mem, t.TempDir(), version.Info{Version: "v1.2.0"})

	admin, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email: "admin@example.com", Name: "Admin", PasswordHash: "x", Role: model.RoleAdmin,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_ = session.Login(r.Context(), sm, &admin)
	})
	mux.HandleFunc("/health", h.Health)
	srv := sm.LoadAndSave(mux)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	req := httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Checks["database"].Status != StatusHealthy {
		t.Errorf("database check = %+v", status.Checks["database"])
	}
	if status.Version.Version != "v1.2.0" {
		t.Errorf("version = %+v", status.Version)
	}
	if status.Cache == nil || status.System == nil {
		t.Error("admin verbose response should include cache and system info")
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	h := NewHealthHandler(db, nil, nil, t.TempDir(), version.Info{})
	cleanup()

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Health status = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Readiness status = %d, want 503", w.Code)
	}
}

func TestLiveness(t *testing.T) {
	w := httptest.NewRecorder()
	(&HealthHandler{}).Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512:                    "512 B",
		2048:                   "2.00 KB",
		5 * 1024 * 1024:        "5.00 MB",
		3 * 1024 * 1024 * 1024: "3.00 GB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
