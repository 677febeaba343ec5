// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "NEWSDESK_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/newsdesk.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/newsdesk.db")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.LockTimeout() != 30*time.Minute {
		t.Errorf("LockTimeout() = %v, want 30m", cfg.LockTimeout())
	}
	if cfg.SessionLifetime != 24*time.Hour {
		t.Errorf("SessionLifetime = %v", cfg.SessionLifetime)
	}
	if cfg.HomeCacheTTL != 30*time.Second {
		t.Errorf("HomeCacheTTL = %v", cfg.HomeCacheTTL)
	}
	if cfg.ImageWorkers != DefaultImageWorkers() {
		t.Errorf("ImageWorkers = %d, want %d", cfg.ImageWorkers, DefaultImageWorkers())
	}
	if cfg.UploadsDir != "./uploads" || cfg.UploadsURL != "/uploads" || cfg.IncomingDir != "./incoming" {
		t.Errorf("upload dirs = %q %q %q", cfg.UploadsDir, cfg.UploadsURL, cfg.IncomingDir)
	}
	if cfg.UseRedisCache() {
		t.Error("redis should be off by default")
	}
	if cfg.Legacy.Enabled() || cfg.Legacy.Port != 3306 {
		t.Errorf("Legacy = %+v", cfg.Legacy)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "NEWSDESK_SESSION_SECRET", testSecret)
	setEnv(t, "NEWSDESK_DB_PATH", "/custom/path.db")
	setEnv(t, "NEWSDESK_ENV", "production")
	setEnv(t, "NEWSDESK_LOCK_TIMEOUT_MINUTES", "10")
	setEnv(t, "NEWSDESK_IMAGE_WORKERS", "1")
	setEnv(t, "NEWSDESK_REDIS_URL", "redis://cache:6379/0")
	setEnv(t, "NEWSDESK_WATERMARK_PATH", "/etc/newsdesk/logo.png")
	setEnv(t, "NEWSDESK_LEGACY_DB", "oldsite")
	setEnv(t, "NEWSDESK_LEGACY_PREFIX", "nd_")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true for production")
	}
	if cfg.LockTimeout() != 10*time.Minute {
		t.Errorf("LockTimeout() = %v", cfg.LockTimeout())
	}
	if cfg.ImageWorkers != 1 {
		t.Errorf("ImageWorkers = %d, want 1", cfg.ImageWorkers)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false")
	}
	if cfg.WatermarkPath != "/etc/newsdesk/logo.png" {
		t.Errorf("WatermarkPath = %q", cfg.WatermarkPath)
	}
	if !cfg.Legacy.Enabled() || cfg.Legacy.TablePrefix != "nd_" {
		t.Errorf("Legacy = %+v", cfg.Legacy)
	}
}

func TestLoad_ImageWorkersCapped(t *testing.T) {
	os.Clearenv()
	setEnv(t, "NEWSDESK_SESSION_SECRET", testSecret)
	setEnv(t, "NEWSDESK_IMAGE_WORKERS", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ImageWorkers != DefaultImageWorkers() {
		t.Errorf("ImageWorkers = %d, want %d", cfg.ImageWorkers, DefaultImageWorkers())
	}
	if cfg.ImageWorkers > MaxImageWorkers {
		t.Errorf("ImageWorkers = %d exceeds %d", cfg.ImageWorkers, MaxImageWorkers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero lock timeout", "NEWSDESK_LOCK_TIMEOUT_MINUTES", "0"},
		{"negative lock timeout", "NEWSDESK_LOCK_TIMEOUT_MINUTES", "-5"},
		{"unparsable port", "NEWSDESK_SERVER_PORT", "http"},
		{"negative cache ttl", "NEWSDESK_HOME_CACHE_TTL", "-1s"},
		{"zero rate limit", "NEWSDESK_API_RATE_LIMIT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "NEWSDESK_SESSION_SECRET", testSecret)
			setEnv(t, tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when NEWSDESK_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"}, // 31 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "NEWSDESK_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "NEWSDESK_SESSION_SECRET", knownWeakSecrets[0])

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a known default secret")
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaaAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaAAAAAAAAAA111111111111", true},
		{testSecret, true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
