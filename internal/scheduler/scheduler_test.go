// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/transtore/internal/config"
	"github.com/olegiv/transtore/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(config.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing database: %v", err)
		}
	})

	if err := store.Migrate(db, config.DriverSQLite); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return db
}

func insertRow(t *testing.T, db *sql.DB, version int, deletedAt *time.Time) {
	t.Helper()
	now := time.Now().UTC()

	var deleted any
	if deletedAt != nil {
		deleted = deletedAt.UTC()
	}
	_, err := db.Exec(`INSERT INTO translations (owner_type, owner_id, locale, field, value, version, deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"post", 1, "en", "title", "v", version, deleted, now, now)
	if err != nil {
		t.Fatalf("inserting row version %d: %v", version, err)
	}
}

func rowCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM translations`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return n
}

func TestPurgeStaleVersions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -90)
	recent := time.Now().UTC().AddDate(0, 0, -1)

	insertRow(t, db, 1, &old)    // stale, below max: purged
	insertRow(t, db, 2, &old)    // stale, below max: purged
	insertRow(t, db, 3, &recent) // below max but newer than cutoff: kept
	insertRow(t, db, 4, nil)     // active max version: kept

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	purged, err := PurgeStaleVersions(ctx, db, config.DriverSQLite, cutoff)
	if err != nil {
		t.Fatalf("PurgeStaleVersions: %v", err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}
	if n := rowCount(t, db); n != 2 {
		t.Fatalf("rows remaining = %d, want 2", n)
	}

	var versions []int
	rows, err := db.Query(`SELECT version FROM translations ORDER BY version`)
	if err != nil {
		t.Fatalf("querying versions: %v", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scanning version: %v", err)
		}
		versions = append(versions, v)
	}
	if len(versions) != 2 || versions[0] != 3 || versions[1] != 4 {
		t.Fatalf("remaining versions = %v, want [3 4]", versions)
	}
}

func TestPurgeKeepsMaxVersionEvenWhenSoftDeleted(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -90)

	// Owner forgotten long ago: every row is soft-deleted, but the highest
	// version must survive so a later write never reuses its number.
	insertRow(t, db, 1, &old)
	insertRow(t, db, 2, &old)
	insertRow(t, db, 3, &old)

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	purged, err := PurgeStaleVersions(ctx, db, config.DriverSQLite, cutoff)
	if err != nil {
		t.Fatalf("PurgeStaleVersions: %v", err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}

	var version int
	if err := db.QueryRow(`SELECT version FROM translations`).Scan(&version); err != nil {
		t.Fatalf("scanning surviving row: %v", err)
	}
	if version != 3 {
		t.Fatalf("surviving version = %d, want 3", version)
	}
}

func TestPurgeNoopWithoutStaleRows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insertRow(t, db, 1, nil)

	purged, err := PurgeStaleVersions(ctx, db, config.DriverSQLite, time.Now().UTC())
	if err != nil {
		t.Fatalf("PurgeStaleVersions: %v", err)
	}
	if purged != 0 {
		t.Fatalf("purged = %d, want 0", purged)
	}
}
