// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the operational HTTP endpoints. The editorial
// API lives in handler/api.
package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/newsdesk/internal/cache"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/session"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/version"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	queries    *store.Queries
	sm         *scs.SessionManager
	cache      cache.Cacher
	uploadsDir string
	version    version.Info
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. sm and c may be nil.
func NewHealthHandler(db *sql.DB, sm *scs.SessionManager, c cache.Cacher, uploadsDir string, v version.Info) *HealthHandler {
	return &HealthHandler{
		db:         db,
		queries:    store.New(db),
		sm:         sm,
		cache:      c,
		uploadsDir: uploadsDir,
		version:    v,
		startTime:  time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for unauthenticated callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response for admins.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Admins get check details; everyone else
// only the overall status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase()
	diskCheck := h.checkDiskSpace()

	overall := StatusHealthy
	if dbCheck.Status != StatusHealthy {
		overall = StatusUnhealthy
	} else if diskCheck.Status != StatusHealthy {
		overall = StatusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if overall == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if !h.isAdmin(r) {
		_ = json.NewEncoder(w).Encode(HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks: map[string]Check{
			"database": dbCheck,
			"disk":     diskCheck,
		},
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		status.Cache = &stats
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
	}
	_ = json.NewEncoder(w).Encode(status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.checkDatabase().Status != StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// isAdmin reports whether the session belongs to an admin. SCS panics when
// the session was not loaded for this route, which counts as anonymous.
func (h *HealthHandler) isAdmin(r *http.Request) (admin bool) {
	if h.sm == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			admin = false
		}
	}()

	userID := session.UserID(r.Context(), h.sm)
	if userID == 0 {
		return false
	}
	user, err := h.queries.GetUserByID(r.Context(), userID)
	return err == nil && user.Role == model.RoleAdmin
}

func (h *HealthHandler) checkDatabase() Check {
	start := time.Now()
	err := h.db.Ping()
	latency := time.Since(start)
	if err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: StatusHealthy, Message: "Connected", Latency: latency.String()}
}

// checkDiskSpace reports free space where processed images are written.
func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		return Check{Status: StatusHealthy, Message: "Uploads directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &stat); err != nil {
		return Check{Status: StatusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}

	available := stat.Bavail * uint64(stat.Bsize)
	const minSpace = 500 * 1024 * 1024 // originals can be several MB each
	if available < minSpace {
		return Check{Status: StatusDegraded, Message: "Low disk space: " + formatBytes(available) + " available"}
	}
	return Check{Status: StatusHealthy, Message: formatBytes(available) + " available"}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
