// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/olegiv/transtore/internal/config"
	"github.com/olegiv/transtore/internal/model"
	"github.com/olegiv/transtore/internal/store"
)

// testOwner is a minimal Owner for engine tests.
type testOwner struct {
	kind       string
	id         int64
	fields     []string
	versioning bool
}

func (o testOwner) TranslationRef() model.OwnerRef {
	return model.OwnerRef{Kind: o.kind, ID: o.id}
}

func (o testOwner) TranslatableFields() []string { return o.fields }

func (o testOwner) TranslationVersioning() bool { return o.versioning }

// testEngine creates an engine over a temporary migrated sqlite database.
func testEngine(t *testing.T, listeners ...Listener) (*Engine, *sql.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewDB(config.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db, config.DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	eng, err := New(db, Config{
		Driver:        config.DriverSQLite,
		DefaultLocale: "en",
		Listeners:     listeners,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, db
}

func str(s string) *string { return &s }

// activeRowCount counts active rows for one tuple.
func activeRowCount(t *testing.T, db *sql.DB, kind string, id int64, locale, field string) int {
	t.Helper()
	var n int
	err := db.QueryRow(`
		SELECT COUNT(1) FROM translations
		WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ? AND deleted_at IS NULL`,
		kind, id, locale, field).Scan(&n)
	if err != nil {
		t.Fatalf("counting active rows: %v", err)
	}
	return n
}

// totalRowCount counts all rows of one owner.
func totalRowCount(t *testing.T, db *sql.DB, kind string, id int64) int {
	t.Helper()
	var n int
	err := db.QueryRow(`
		SELECT COUNT(1) FROM translations WHERE owner_type = ? AND owner_id = ?`,
		kind, id).Scan(&n)
	if err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return n
}

func TestTranslateUnversionedUpsert(t *testing.T) {
	eng, db := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "category", id: 1, fields: []string{"name"}, versioning: false}

	if err := eng.SetTranslation(ctx, owner, "en", "name", str("Books")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.SetTranslation(ctx, owner, "en", "name", str("Magazines")); err != nil {
		t.Fatalf("SetTranslation update: %v", err)
	}

	if got := totalRowCount(t, db, "category", 1); got != 1 {
		t.Fatalf("row count = %d, want 1 (upsert must not create history)", got)
	}

	var version int
	var value string
	err := db.QueryRow(`
		SELECT version, value FROM translations WHERE owner_type = 'category' AND owner_id = 1`).
		Scan(&version, &value)
	if err != nil {
		t.Fatalf("reading row: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if value != "Magazines" {
		t.Errorf("value = %q, want %q", value, "Magazines")
	}
}

func TestTranslateUnversionedReactivatesSoftDeletedRow(t *testing.T) {
	eng, db := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "category", id: 2, fields: []string{"name"}, versioning: false}

	if err := eng.SetTranslation(ctx, owner, "en", "name", str("Old")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.ForgetTranslation(ctx, owner, "name", "en", false); err != nil {
		t.Fatalf("ForgetTranslation: %v", err)
	}
	if got := activeRowCount(t, db, "category", 2, "en", "name"); got != 0 {
		t.Fatalf("active rows after forget = %d, want 0", got)
	}

	if err := eng.SetTranslation(ctx, owner, "en", "name", str("New")); err != nil {
		t.Fatalf("SetTranslation after forget: %v", err)
	}
	if got := activeRowCount(t, db, "category", 2, "en", "name"); got != 1 {
		t.Fatalf("active rows after rewrite = %d, want 1", got)
	}
	if got := totalRowCount(t, db, "category", 2); got != 1 {
		t.Fatalf("row count = %d, want 1", got)
	}
}

func TestTranslateVersioningMonotonicity(t *testing.T) {
	eng, db := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 1, fields: []string{"title"}, versioning: true}

	for _, v := range []string{"one", "two", "three"} {
		if err := eng.SetTranslation(ctx, owner, "en", "title", str(v)); err != nil {
			t.Fatalf("SetTranslation %q: %v", v, err)
		}
	}

	rows, err := db.Query(`
		SELECT version, deleted_at IS NULL FROM translations
		WHERE owner_type = 'post' AND owner_id = 1 ORDER BY version`)
	if err != nil {
		t.Fatalf("reading versions: %v", err)
	}
	defer rows.Close()

	var versions []int
	var actives []bool
	for rows.Next() {
		var v int
		var active bool
		if err := rows.Scan(&v, &active); err != nil {
			t.Fatalf("scan: %v", err)
		}
		versions = append(versions, v)
		actives = append(actives, active)
	}

	if len(versions) != 3 {
		t.Fatalf("version count = %d, want 3", len(versions))
	}
	for i, v := range versions {
		if v != i+1 {
			t.Errorf("versions[%d] = %d, want %d (strictly increasing from 1)", i, v, i+1)
		}
	}
	for i, active := range actives {
		wantActive := i == 2
		if active != wantActive {
			t.Errorf("version %d active = %v, want %v", versions[i], active, wantActive)
		}
	}
}

func TestTranslateVersionNeverReusedAfterSoftForget(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 2, fields: []string{"title"}, versioning: true}

	if err := eng.SetTranslation(ctx, owner, "en", "title", str("v1")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.SetTranslation(ctx, owner, "en", "title", str("v2")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.ForgetTranslation(ctx, owner, "title", "en", false); err != nil {
		t.Fatalf("ForgetTranslation: %v", err)
	}

	// The next write must take version 3 even though nothing is active.
	if err := eng.SetTranslation(ctx, owner, "en", "title", str("v3")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}

	last, err := eng.LatestTranslationVersion(ctx, owner, "title", "en")
	if err != nil {
		t.Fatalf("LatestTranslationVersion: %v", err)
	}
	if last != 3 {
		t.Errorf("latest version = %d, want 3", last)
	}
}

func TestGetTranslationReadFallback(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 3, fields: []string{"title"}, versioning: true}

	if err := eng.SetTranslation(ctx, owner, "en", "title", str("kept")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.ForgetTranslation(ctx, owner, "title", "en", false); err != nil {
		t.Fatalf("ForgetTranslation: %v", err)
	}

	got, err := eng.GetTranslation(ctx, owner, "title", "en", 0)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if got == nil || *got != "kept" {
		t.Errorf("GetTranslation = %v, want %q (fallback to highest surviving version)", got, "kept")
	}
}

func TestGetTranslationMissingIsNilNotError(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 4, fields: []string{"title"}, versioning: true}

	got, err := eng.GetTranslation(ctx, owner, "title", "en", 0)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if got != nil {
		t.Errorf("GetTranslation = %v, want nil", got)
	}

	got, err = eng.GetTranslation(ctx, owner, "title", "en", 7)
	if err != nil {
		t.Fatalf("GetTranslation version: %v", err)
	}
	if got != nil {
		t.Errorf("GetTranslation v7 = %v, want nil", got)
	}
}

func TestGetTranslationExactVersion(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 5, fields: []string{"title"}, versioning: true}

	if err := eng.SetTranslation(ctx, owner, "en", "title", str("first")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.SetTranslation(ctx, owner, "en", "title", str("second")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}

	got, err := eng.GetTranslation(ctx, owner, "title", "en", 1)
	if err != nil {
		t.Fatalf("GetTranslation v1: %v", err)
	}
	if got == nil || *got != "first" {
		t.Errorf("GetTranslation v1 = %v, want %q (soft-deleted versions stay readable)", got, "first")
	}
}

func TestDisallowedFieldAtomicity(t *testing.T) {
	eng, db := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 6, fields: []string{"title"}, versioning: true}

	err := eng.Translate(ctx, owner, "en", map[string]*string{
		"title": str("ok"),
		"body":  str("nope"),
		"slug":  str("nope"),
	})
	if err == nil {
		t.Fatal("Translate should fail on disallowed fields")
	}

	var disallowed *DisallowedFieldError
	if !errors.As(err, &disallowed) {
		t.Fatalf("error type = %T, want *DisallowedFieldError", err)
	}
	if len(disallowed.Fields) != 2 {
		t.Errorf("disallowed fields = %v, want both body and slug", disallowed.Fields)
	}
	if !IsDisallowedField(err) {
		t.Error("IsDisallowedField should be true")
	}

	if got := totalRowCount(t, db, "post", 6); got != 0 {
		t.Errorf("row count = %d, want 0 (nothing persists when any field is disallowed)", got)
	}
}

func TestAllowAllSentinel(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "product", id: 1, fields: []string{model.AllowAllFields}, versioning: true}

	err := eng.Translate(ctx, owner, "en", map[string]*string{
		"anything": str("goes"),
		"really":   str("anything"),
	})
	if err != nil {
		t.Fatalf("Translate with allow-all: %v", err)
	}
}

func TestTranslateEmptyLocale(t *testing.T) {
	eng, _ := testEngine(t)
	owner := testOwner{kind: "post", id: 7, fields: []string{"title"}, versioning: true}

	err := eng.SetTranslation(context.Background(), owner, "", "title", str("x"))
	if !errors.Is(err, ErrEmptyLocale) {
		t.Errorf("error = %v, want ErrEmptyLocale", err)
	}
}

func TestGetTranslationsGrouping(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 8, fields: []string{"title", "summary"}, versioning: true}

	if err := eng.Translate(ctx, owner, "en", map[string]*string{
		"title":   str("Hello"),
		"summary": str("World"),
	}); err != nil {
		t.Fatalf("Translate en: %v", err)
	}
	if err := eng.Translate(ctx, owner, "de", map[string]*string{
		"title": str("Hallo"),
	}); err != nil {
		t.Fatalf("Translate de: %v", err)
	}

	all, err := eng.GetTranslations(ctx, owner, nil)
	if err != nil {
		t.Fatalf("GetTranslations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("locale count = %d, want 2", len(all))
	}
	if v := all["en"]["title"]; v == nil || *v != "Hello" {
		t.Errorf("en/title = %v, want Hello", v)
	}
	if v := all["de"]["title"]; v == nil || *v != "Hallo" {
		t.Errorf("de/title = %v, want Hallo", v)
	}

	en, err := eng.GetTranslationsTo(ctx, owner, "en")
	if err != nil {
		t.Fatalf("GetTranslationsTo: %v", err)
	}
	if len(en) != 2 {
		t.Errorf("en field count = %d, want 2", len(en))
	}
}

func TestDisplayLocaleFromContext(t *testing.T) {
	eng, _ := testEngine(t)
	owner := testOwner{kind: "post", id: 9, fields: []string{"title"}, versioning: true}

	ctx := context.Background()
	if err := eng.SetTranslation(ctx, owner, "fr", "title", str("Bonjour")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}

	got, err := eng.GetTranslation(WithLocale(ctx, "fr"), owner, "title", "", 0)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if got == nil || *got != "Bonjour" {
		t.Errorf("GetTranslation via context locale = %v, want Bonjour", got)
	}

	// Without a context locale the configured default ("en") applies.
	got, err = eng.GetTranslation(ctx, owner, "title", "", 0)
	if err != nil {
		t.Fatalf("GetTranslation default: %v", err)
	}
	if got != nil {
		t.Errorf("GetTranslation default locale = %v, want nil", got)
	}
}

func TestNullValueRoundTrip(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 10, fields: []string{"title"}, versioning: true}

	if err := eng.SetTranslation(ctx, owner, "en", "title", nil); err != nil {
		t.Fatalf("SetTranslation nil: %v", err)
	}

	has, err := eng.HasTranslation(ctx, owner, "title", "en")
	if err != nil {
		t.Fatalf("HasTranslation: %v", err)
	}
	if !has {
		t.Error("HasTranslation should see the active null-valued row")
	}

	got, err := eng.GetTranslation(ctx, owner, "title", "en", 0)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if got != nil {
		t.Errorf("GetTranslation = %v, want nil value", got)
	}
}

// TestVersioningScenarioFa exercises the canonical versioned write sequence.
func TestVersioningScenarioFa(t *testing.T) {
	eng, _ := testEngine(t)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 11, fields: []string{"title"}, versioning: true}

	if err := eng.Translate(ctx, owner, "fa", map[string]*string{"title": str("سلام")}); err != nil {
		t.Fatalf("Translate v1: %v", err)
	}
	if err := eng.Translate(ctx, owner, "fa", map[string]*string{"title": str("سلام دوباره")}); err != nil {
		t.Fatalf("Translate v2: %v", err)
	}

	got, err := eng.GetTranslation(ctx, owner, "title", "fa", 0)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if got == nil || *got != "سلام دوباره" {
		t.Errorf("GetTranslation = %v, want %q", got, "سلام دوباره")
	}

	versions, err := eng.GetTranslationVersions(ctx, owner, "title", "fa")
	if err != nil {
		t.Fatalf("GetTranslationVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("version count = %d, want 2", len(versions))
	}
	if versions[0].Version != 2 || !versions[0].Active() {
		t.Errorf("versions[0] = v%d active=%v, want v2 active", versions[0].Version, versions[0].Active())
	}
	if versions[1].Version != 1 || versions[1].Active() {
		t.Errorf("versions[1] = v%d active=%v, want v1 soft-deleted", versions[1].Version, versions[1].Active())
	}
	if versions[1].Value == nil || *versions[1].Value != "سلام" {
		t.Errorf("versions[1].Value = %v, want %q", versions[1].Value, "سلام")
	}
}

// recordingListener captures engine notifications for assertions.
type recordingListener struct {
	stored    []StoredEvent
	forgotten []ForgottenEvent
}

func (l *recordingListener) TranslationStored(_ context.Context, ev StoredEvent) {
	l.stored = append(l.stored, ev)
}

func (l *recordingListener) TranslationForgotten(_ context.Context, ev ForgottenEvent) {
	l.forgotten = append(l.forgotten, ev)
}

func TestStoredNotificationPerField(t *testing.T) {
	rec := &recordingListener{}
	eng, _ := testEngine(t, rec)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 12, fields: []string{"title", "summary"}, versioning: true}

	if err := eng.Translate(ctx, owner, "en", map[string]*string{
		"title":   str("a"),
		"summary": str("b"),
	}); err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if len(rec.stored) != 2 {
		t.Fatalf("stored notifications = %d, want one per field", len(rec.stored))
	}
	// Fields are written in sorted order, so notifications follow suit.
	if rec.stored[0].Field != "summary" || rec.stored[1].Field != "title" {
		t.Errorf("notification order = %s, %s", rec.stored[0].Field, rec.stored[1].Field)
	}
	if rec.stored[0].Owner.Kind != "post" || rec.stored[0].Owner.ID != 12 {
		t.Errorf("notification owner = %v", rec.stored[0].Owner)
	}
}

func TestForgottenNotificationPerRow(t *testing.T) {
	rec := &recordingListener{}
	eng, _ := testEngine(t, rec)
	ctx := context.Background()
	owner := testOwner{kind: "post", id: 13, fields: []string{"title"}, versioning: true}

	if err := eng.SetTranslation(ctx, owner, "en", "title", str("v1")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := eng.SetTranslation(ctx, owner, "en", "title", str("v2")); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}

	// Force-forget removes both history rows and notifies once per row.
	if err := eng.ForgetTranslation(ctx, owner, "title", "en", true); err != nil {
		t.Fatalf("ForgetTranslation force: %v", err)
	}

	if len(rec.forgotten) != 2 {
		t.Fatalf("forgotten notifications = %d, want 2", len(rec.forgotten))
	}
	for _, ev := range rec.forgotten {
		if !ev.Forced {
			t.Error("Forced should be true on force-forget")
		}
	}
}
