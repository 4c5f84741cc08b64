// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
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

	"github.com/olegiv/transtore/internal/cache"
	"github.com/olegiv/transtore/internal/config"
	"github.com/olegiv/transtore/internal/handler/api"
	"github.com/olegiv/transtore/internal/logging"
	"github.com/olegiv/transtore/internal/middleware"
	"github.com/olegiv/transtore/internal/scheduler"
	"github.com/olegiv/transtore/internal/service"
	"github.com/olegiv/transtore/internal/store"
	"github.com/olegiv/transtore/internal/translation"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "transtore - versioned translation store\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_DB_DRIVER       Database driver: sqlite|mysql|postgres (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_DB_DSN          Database DSN or SQLite path (default: ./data/transtore.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_KINDS_PATH      TOML file declaring translatable kinds (default: ./kinds.toml)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_DEFAULT_LOCALE  Default display locale (default: en)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_LOCALES         Comma-separated locales for negotiation (default: en)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_REDIS_URL       Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRANSTORE_RETENTION_DAYS  Days of soft-deleted history to keep, 0 disables purging\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("transtore %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure the data directory exists for the SQLite driver
	if cfg.DBDriver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Initialize database
	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.NewDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	eventService := service.NewEventService(db, cfg.DBDriver)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, eventService))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Load the translatable kind declarations
	registry, err := translation.LoadKinds(cfg.KindsPath)
	if err != nil {
		return fmt.Errorf("loading kinds: %w", err)
	}
	slog.Info("kinds registered", "kinds", registry.Kinds())

	// Initialize cache backend
	cacheCfg := cache.CacheConfig{
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}
	if cfg.UseRedisCache() {
		cacheCfg.RedisURL = cfg.RedisURL
	}
	cacheBackendName := "memory"
	if cfg.UseRedisCache() {
		cacheBackendName = "redis"
	}
	backend, err := cache.NewCache(cacheCfg)
	if err != nil {
		slog.Warn("cache backend unavailable, falling back to memory", "error", err)
		cacheBackendName = "memory"
		backend = cache.NewMemoryCache(cache.MemoryCacheOptions{
			DefaultTTL:      cacheCfg.DefaultTTL,
			MaxSize:         cacheCfg.MaxSize,
			CleanupInterval: cacheCfg.CleanupInterval,
		})
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	slog.Info("cache initialized", "backend", cacheBackendName)
	translationCache := cache.NewTranslationCache(backend, cacheCfg.DefaultTTL)

	// Build the translation engine
	engine, err := translation.New(db, translation.Config{
		Driver:        cfg.DBDriver,
		DefaultLocale: cfg.DefaultLocale,
		Logger:        logger,
		Cache:         translationCache,
		Listeners: []translation.Listener{
			service.NewAuditListener(eventService, logger),
		},
	})
	if err != nil {
		return fmt.Errorf("creating translation engine: %w", err)
	}

	// Start the retention scheduler
	sched := scheduler.New(db, cfg.DBDriver, cfg.RetentionDays, eventService, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Wire the HTTP surface
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	rateLimiter := middleware.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.Use(rateLimiter.Middleware())

	negotiator := middleware.NewLocaleNegotiator(cfg.Locales, cfg.DefaultLocale)
	r.Use(negotiator.Middleware())

	apiHandler := api.NewHandler(db, engine, registry, logger)
	r.Mount("/api/v1", apiHandler.Routes())

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
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
