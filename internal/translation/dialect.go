// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"fmt"

	"github.com/olegiv/transtore/internal/config"
	"github.com/olegiv/transtore/internal/dbx"
)

// Dialect encapsulates the storage-engine specific parts of the engine:
// the version-1 upsert statement and the substring/full-text predicates.
// One implementation exists per supported driver, selected once at
// configuration time.
type Dialect interface {
	// Name returns the configured driver name.
	Name() string

	// Rebind rewrites ? placeholders into the driver's parameter format.
	Rebind(query string) string

	// UpsertTranslation returns the statement that inserts a version-1 row
	// for (owner_type, owner_id, locale, field) or, on conflict, overwrites
	// its value, clears deleted_at and bumps updated_at. Placeholder order:
	// owner_type, owner_id, locale, field, value, created_at, updated_at.
	UpsertTranslation() string

	// LockTuple returns a locking read on every row of one
	// (owner_type, owner_id, locale, field) tuple, serializing concurrent
	// versioned writers of that tuple inside a transaction. ok=false for
	// engines whose writers are already serialized. Placeholder order:
	// owner_type, owner_id, locale, field.
	LockTuple() (query string, ok bool)

	// ContainsExpr returns a predicate on t.value matching a substring
	// pattern, using the engine's native case-insensitive operator where
	// one exists. One placeholder: the %needle% pattern.
	ContainsExpr() string

	// FullTextExpr returns a native full-text predicate on t.value with one
	// placeholder (the raw needle), or ok=false when the driver has none.
	FullTextExpr() (expr string, ok bool)
}

// NewDialect returns the dialect for a configured driver name.
func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return sqliteDialect{}, nil
	case config.DriverMySQL:
		return mysqlDialect{}, nil
	case config.DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return config.DriverSQLite }

func (sqliteDialect) Rebind(query string) string {
	return dbx.Rebind(config.DriverSQLite, query)
}

func (sqliteDialect) UpsertTranslation() string {
	return `INSERT INTO translations (owner_type, owner_id, locale, field, value, version, deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, NULL, ?, ?)
		ON CONFLICT (owner_type, owner_id, locale, field, version)
		DO UPDATE SET value = excluded.value, deleted_at = NULL, updated_at = excluded.updated_at`
}

// SQLite allows one writer at a time, so versioned writers are already
// serialized per database.
func (sqliteDialect) LockTuple() (string, bool) {
	return "", false
}

// SQLite LIKE is case-insensitive for ASCII only; that is the documented
// fallback behavior for engines without a native operator.
func (sqliteDialect) ContainsExpr() string {
	return `t.value LIKE ?`
}

func (sqliteDialect) FullTextExpr() (string, bool) {
	return "", false
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return config.DriverMySQL }

func (mysqlDialect) Rebind(query string) string {
	return dbx.Rebind(config.DriverMySQL, query)
}

func (mysqlDialect) UpsertTranslation() string {
	return `INSERT INTO translations (owner_type, owner_id, locale, field, value, version, deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, NULL, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), deleted_at = NULL, updated_at = VALUES(updated_at)`
}

func (mysqlDialect) LockTuple() (string, bool) {
	return `SELECT id FROM translations
		WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
		FOR UPDATE`, true
}

// Case-insensitivity comes from the utf8mb4 collation on the column.
func (mysqlDialect) ContainsExpr() string {
	return `t.value LIKE ?`
}

func (mysqlDialect) FullTextExpr() (string, bool) {
	return `MATCH(t.value) AGAINST (? IN NATURAL LANGUAGE MODE)`, true
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return config.DriverPostgres }

func (postgresDialect) Rebind(query string) string {
	return dbx.Rebind(config.DriverPostgres, query)
}

func (postgresDialect) UpsertTranslation() string {
	return `INSERT INTO translations (owner_type, owner_id, locale, field, value, version, deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, NULL, ?, ?)
		ON CONFLICT (owner_type, owner_id, locale, field, version)
		DO UPDATE SET value = excluded.value, deleted_at = NULL, updated_at = excluded.updated_at`
}

func (postgresDialect) LockTuple() (string, bool) {
	return `SELECT id FROM translations
		WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
		FOR UPDATE`, true
}

func (postgresDialect) ContainsExpr() string {
	return `t.value ILIKE ?`
}

func (postgresDialect) FullTextExpr() (string, bool) {
	return `to_tsvector('simple', coalesce(t.value, '')) @@ plainto_tsquery('simple', ?)`, true
}
