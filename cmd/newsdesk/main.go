// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/newsdesk/internal/cache"
	"github.com/olegiv/newsdesk/internal/config"
	"github.com/olegiv/newsdesk/internal/handler"
	"github.com/olegiv/newsdesk/internal/handler/api"
	"github.com/olegiv/newsdesk/internal/imaging"
	"github.com/olegiv/newsdesk/internal/legacy"
	"github.com/olegiv/newsdesk/internal/logging"
	"github.com/olegiv/newsdesk/internal/middleware"
	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/scheduler"
	"github.com/olegiv/newsdesk/internal/service"
	"github.com/olegiv/newsdesk/internal/session"
	"github.com/olegiv/newsdesk/internal/slots"
	"github.com/olegiv/newsdesk/internal/store"
	"github.com/olegiv/newsdesk/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	importLegacy := flag.Bool("import-legacy", false, "Import the legacy MySQL newsroom database and exit")
	importPositions := flag.Bool("import-positions", true, "With -import-legacy, replay legacy homepage pins")
	skipExisting := flag.Bool("skip-existing", false, "With -import-legacy, skip items whose slug is taken")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "newsdesk - newsroom homepage and editorial back office\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_SESSION_SECRET       Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_DB_PATH              SQLite database path (default: ./data/newsdesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_LOCK_TIMEOUT_MINUTES Edit lock lifetime (default: 30)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_IMAGE_WORKERS        Image pool size, at most min(4, CPUs)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_WATERMARK_PATH       Watermark overlay image (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_REDIS_URL            Redis URL for the shared homepage cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_LEGACY_DB            Legacy MySQL database name for -import-legacy\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("newsdesk %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	var err error
	if *importLegacy {
		err = runImport(legacy.Options{Positions: *importPositions, SkipExisting: *skipExisting})
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration, opens the database and installs the logger.
func setup() (*config.Config, *sql.DB, *slog.Logger, error) {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(textHandler))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above also land in the events table.
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	if err := store.Seed(context.Background(), db, cfg.DoSeed); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("seeding database: %w", err)
	}
	return cfg, db, logger, nil
}

func runImport(opts legacy.Options) error {
	cfg, db, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if !cfg.Legacy.Enabled() {
		return errors.New("NEWSDESK_LEGACY_DB is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := legacy.NewReader(ctx, legacy.ConnConfig{
		Host:        cfg.Legacy.Host,
		Port:        cfg.Legacy.Port,
		User:        cfg.Legacy.User,
		Password:    cfg.Legacy.Password,
		Database:    cfg.Legacy.Database,
		TablePrefix: cfg.Legacy.TablePrefix,
	})
	if err != nil {
		return fmt.Errorf("connecting to legacy database: %w", err)
	}
	defer func() { _ = reader.Close() }()

	importer := legacy.NewImporter(db, slots.NewEngine(db, cfg.LockTimeout()), logger)
	result, err := importer.Import(ctx, reader, opts)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	for _, msg := range result.Errors {
		logger.Warn("legacy import issue", "category", model.EventCategoryImport, "detail", msg)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func run() error {
	cfg, db, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	versionInfo := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}

	sessionManager := session.New(db, cfg.IsDevelopment(), cfg.SessionLifetime)

	cacher := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.HomeCacheTTL,
		MaxEntries: cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = cacher.Close() }()

	pipeline, err := imaging.NewPipeline(imaging.Config{
		UploadDir:     cfg.UploadsDir,
		URLPrefix:     cfg.UploadsURL,
		Workers:       cfg.ImageWorkers,
		WatermarkPath: cfg.WatermarkPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing image pipeline: %w", err)
	}
	pipeline.Start()
	defer pipeline.Stop()
	slog.Info("image pipeline started", "workers", pipeline.Workers())

	auditService := service.NewAuditService(db, logger)
	eventService := service.NewEventService(db, logger)
	homeService := service.NewHomeService(slots.NewEngine(db, cfg.LockTimeout()), cacher, cfg.HomeCacheTTL, auditService, logger)
	contentService := service.NewContentService(db, cfg.LockTimeout(), homeService, auditService, logger)
	mediaService := service.NewMediaService(db, pipeline, auditService, logger)

	sched := scheduler.New(contentService, eventService, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	apiHandler := api.NewHandler(api.Config{
		DB:          db,
		Sessions:    sessionManager,
		Home:        homeService,
		Content:     contentService,
		Media:       mediaService,
		Audit:       auditService,
		Login:       loginProtection,
		RateLimit:   middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst),
		IncomingDir: cfg.IncomingDir,
		IsDev:       cfg.IsDevelopment(),
		Logger:      logger,
	})
	healthHandler := handler.NewHealthHandler(db, sessionManager, cacher, cfg.UploadsDir, versionInfo)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))
	// Image conversions may run for up to two minutes.
	r.Use(chimw.Timeout(150 * time.Second))

	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Get("/health", healthHandler.Health)
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())))
		r.Mount("/", apiHandler.Routes())
	})

	// Forget stale login attempts.
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				loginProtection.Cleanup()
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      160 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
