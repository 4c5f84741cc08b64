// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translation implements the versioned, polymorphic translation
// engine: writes with optional per-tuple history, current-value resolution
// with fallbacks, soft-delete/restore bound to the owner's lifecycle, a
// versioning-aware uniqueness predicate, and driver-aware content search.
package translation

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/olegiv/transtore/internal/cache"
)

// Engine is the translation storage and retrieval engine. It is safe for
// concurrent use; all state besides the database handle is immutable after
// construction.
type Engine struct {
	db            *sql.DB
	dialect       Dialect
	defaultLocale string
	logger        *slog.Logger
	cache         *cache.TranslationCache
	listeners     []Listener
}

// Config holds engine construction options.
type Config struct {
	// Driver selects the SQL dialect: config.DriverSQLite, DriverMySQL or
	// DriverPostgres.
	Driver string

	// DefaultLocale is the display locale used when neither the call nor
	// the context provides one. Defaults to "en".
	DefaultLocale string

	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Cache, when set, caches resolved current values. Correctness never
	// depends on it; it is invalidated on every write and forget.
	Cache *cache.TranslationCache

	// Listeners receive stored/forgotten notifications.
	Listeners []Listener
}

// New creates an engine over an open database handle.
func New(db *sql.DB, cfg Config) (*Engine, error) {
	dialect, err := NewDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		db:            db,
		dialect:       dialect,
		defaultLocale: cfg.DefaultLocale,
		logger:        cfg.Logger,
		cache:         cfg.Cache,
		listeners:     cfg.Listeners,
	}, nil
}

// Dialect returns the engine's storage dialect.
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// displayLocale resolves an explicit locale argument against the context
// override and the configured default, in that order.
func (e *Engine) displayLocale(ctx context.Context, locale string) string {
	if locale != "" {
		return locale
	}
	if l, ok := LocaleFrom(ctx); ok {
		return l
	}
	return e.defaultLocale
}

// invalidateField drops a single cached tuple after a write.
func (e *Engine) invalidateField(ctx context.Context, kind string, id int64, locale, field string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateField(ctx, kind, id, locale, field); err != nil {
		e.logger.Warn("translation cache invalidation failed",
			"kind", kind, "id", id, "locale", locale, "field", field, "error", err)
	}
}

// invalidateOwner drops every cached tuple of an owner after a forget,
// restore or force-delete.
func (e *Engine) invalidateOwner(ctx context.Context, kind string, id int64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateOwner(ctx, kind, id); err != nil {
		e.logger.Warn("translation cache invalidation failed", "kind", kind, "id", id, "error", err)
	}
}
