// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/olegiv/transtore/internal/dbx"
)

// Translate stores the given field → value pairs for one locale of an owner.
//
// Every field must be in the owner's allow-list (unless it allows all);
// otherwise a *DisallowedFieldError naming every offending field is returned
// and nothing is persisted. With versioning disabled the version-1 row is
// upserted per field; with versioning enabled the active row is soft-deleted
// and a new row with the next version number is inserted, atomically per
// field. A stored notification is emitted once per field after that field's
// persistence completes.
func (e *Engine) Translate(ctx context.Context, owner Owner, locale string, fields map[string]*string) error {
	if locale == "" {
		return ErrEmptyLocale
	}
	if len(fields) == 0 {
		return nil
	}

	ref := owner.TranslationRef()

	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	if bad := disallowedFields(owner, names); len(bad) > 0 {
		return &DisallowedFieldError{Kind: ref.Kind, Fields: bad}
	}

	versioned := owner.TranslationVersioning()

	for _, field := range names {
		value := fields[field]

		var err error
		if versioned {
			err = e.writeVersioned(ctx, ref.Kind, ref.ID, locale, field, value)
		} else {
			err = e.upsert(ctx, ref.Kind, ref.ID, locale, field, value)
		}
		if err != nil {
			return fmt.Errorf("translating %s field %q (%s): %w", ref, field, locale, err)
		}

		e.invalidateField(ctx, ref.Kind, ref.ID, locale, field)
		e.notifyStored(ctx, StoredEvent{Owner: ref, Locale: locale, Field: field, Value: value})
	}

	return nil
}

// SetTranslation stores a single field value; sugar over Translate.
func (e *Engine) SetTranslation(ctx context.Context, owner Owner, locale, field string, value *string) error {
	return e.Translate(ctx, owner, locale, map[string]*string{field: value})
}

// TranslateBatch stores a multi-locale payload shaped {locale: {field: value}}.
// The allow-list is validated across the whole payload before any locale is
// written, so a disallowed field aborts the entire batch.
func (e *Engine) TranslateBatch(ctx context.Context, owner Owner, payload map[string]map[string]*string) error {
	b := e.Binder(owner)
	if err := b.Stage(payload); err != nil {
		return err
	}
	return b.Flush(ctx)
}

// upsert writes the single version-1 row for a tuple, creating it if absent
// and otherwise overwriting the value and reactivating the row.
func (e *Engine) upsert(ctx context.Context, kind string, id int64, locale, field string, value *string) error {
	now := time.Now().UTC()
	_, err := e.db.ExecContext(ctx, e.dialect.Rebind(e.dialect.UpsertTranslation()),
		kind, id, locale, field, nullString(value), now, now)
	return err
}

// writeVersioned retires the active row and inserts the next version, inside
// one transaction so concurrent writers of the same tuple cannot interleave
// between the soft-delete and the insert.
func (e *Engine) writeVersioned(ctx context.Context, kind string, id int64, locale, field string, value *string) error {
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := time.Now().UTC()

		// On mysql/postgres, take row locks on the tuple first so a second
		// writer blocks here and then reads this transaction's committed
		// rows in its own statements. Without it, READ COMMITTED lets two
		// writers retire different rows and both insert an active version.
		// A first-ever write has nothing to lock; the unique version index
		// then fails one of two racing inserts.
		if lock, ok := e.dialect.LockTuple(); ok {
			if err := lockTuple(ctx, tx, e.dialect.Rebind(lock), kind, id, locale, field); err != nil {
				return fmt.Errorf("locking tuple: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, e.dialect.Rebind(`
			UPDATE translations
			   SET deleted_at = ?, updated_at = ?
			 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
			   AND deleted_at IS NULL`),
			now, now, kind, id, locale, field)
		if err != nil {
			return fmt.Errorf("retiring active row: %w", err)
		}

		// Highest version ever recorded for the tuple, soft-deleted included,
		// so version numbers are never reused.
		var last int
		err = tx.QueryRowContext(ctx, e.dialect.Rebind(`
			SELECT COALESCE(MAX(version), 0)
			  FROM translations
			 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?`),
			kind, id, locale, field).Scan(&last)
		if err != nil {
			return fmt.Errorf("resolving next version: %w", err)
		}

		_, err = tx.ExecContext(ctx, e.dialect.Rebind(`
			INSERT INTO translations (owner_type, owner_id, locale, field, value, version, deleted_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?)`),
			kind, id, locale, field, nullString(value), last+1, now, now)
		if err != nil {
			return fmt.Errorf("inserting version %d: %w", last+1, err)
		}

		return nil
	})
}

// lockTuple runs a locking read and drains it; the locks are held until the
// surrounding transaction ends.
func lockTuple(ctx context.Context, tx dbx.DBTX, query string, args ...any) error {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
	}
	return rows.Err()
}

// nullString converts a nullable pointer into its sql representation.
func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
