// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/transtore/internal/model"
)

// GetTranslation resolves one field value for an owner.
//
// An empty locale resolves to the display locale. With version 0 the active
// row wins; when every row of the tuple is soft-deleted the highest version
// is returned instead. A positive version returns exactly that version,
// soft-deleted or not. A missing translation is a nil value, never an error.
func (e *Engine) GetTranslation(ctx context.Context, owner Owner, field, locale string, version int) (*string, error) {
	ref := owner.TranslationRef()
	locale = e.displayLocale(ctx, locale)

	if version > 0 {
		return e.getExactVersion(ctx, ref, field, locale, version)
	}

	if e.cache != nil {
		if v, ok, err := e.cache.GetValue(ctx, ref.Kind, ref.ID, locale, field); err == nil && ok {
			return v, nil
		}
	}

	var value sql.NullString
	err := e.db.QueryRowContext(ctx, e.dialect.Rebind(`
		SELECT value
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
		   AND deleted_at IS NULL`),
		ref.Kind, ref.ID, locale, field).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		// No active row: fall back to the most recent version by number,
		// soft-deleted included.
		err = e.db.QueryRowContext(ctx, e.dialect.Rebind(`
			SELECT value
			  FROM translations
			 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
			 ORDER BY version DESC
			 LIMIT 1`),
			ref.Kind, ref.ID, locale, field).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("reading translation %s %s/%s: %w", ref, locale, field, err)
	}

	result := stringPtr(value)
	if e.cache != nil {
		if err := e.cache.SetValue(ctx, ref.Kind, ref.ID, locale, field, result); err != nil {
			e.logger.Warn("translation cache set failed", "owner", ref.String(), "error", err)
		}
	}
	return result, nil
}

// getExactVersion returns the value of one specific version, or nil.
func (e *Engine) getExactVersion(ctx context.Context, ref model.OwnerRef, field, locale string, version int) (*string, error) {
	var value sql.NullString
	err := e.db.QueryRowContext(ctx, e.dialect.Rebind(`
		SELECT value
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ? AND version = ?`),
		ref.Kind, ref.ID, locale, field, version).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading translation %s %s/%s v%d: %w", ref, locale, field, version, err)
	}
	return stringPtr(value), nil
}

// GetTranslations returns the owner's active values for one locale as a
// field → value map. With a nil locale it returns the active values of every
// locale, grouped as locale → field → value.
func (e *Engine) GetTranslations(ctx context.Context, owner Owner, locale *string) (map[string]map[string]*string, error) {
	ref := owner.TranslationRef()

	query := `
		SELECT locale, field, value
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ?
		   AND deleted_at IS NULL`
	args := []any{ref.Kind, ref.ID}

	if locale != nil {
		query += ` AND locale = ?`
		args = append(args, *locale)
	}

	rows, err := e.db.QueryContext(ctx, e.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("reading translations for %s: %w", ref, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	out := make(map[string]map[string]*string)
	for rows.Next() {
		var loc, field string
		var value sql.NullString
		if err := rows.Scan(&loc, &field, &value); err != nil {
			return nil, err
		}
		if out[loc] == nil {
			out[loc] = make(map[string]*string)
		}
		out[loc][field] = stringPtr(value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// GetTranslationsTo returns the active field → value map for one locale.
// An empty locale resolves to the display locale.
func (e *Engine) GetTranslationsTo(ctx context.Context, owner Owner, locale string) (map[string]*string, error) {
	locale = e.displayLocale(ctx, locale)
	grouped, err := e.GetTranslations(ctx, owner, &locale)
	if err != nil {
		return nil, err
	}
	if m, ok := grouped[locale]; ok {
		return m, nil
	}
	return map[string]*string{}, nil
}

// GetTranslationVersions returns the full history of one tuple, newest first,
// soft-deleted rows included.
func (e *Engine) GetTranslationVersions(ctx context.Context, owner Owner, field, locale string) ([]model.TranslationVersion, error) {
	ref := owner.TranslationRef()
	locale = e.displayLocale(ctx, locale)

	rows, err := e.db.QueryContext(ctx, e.dialect.Rebind(`
		SELECT version, value, deleted_at
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
		 ORDER BY version DESC`),
		ref.Kind, ref.ID, locale, field)
	if err != nil {
		return nil, fmt.Errorf("reading versions for %s %s/%s: %w", ref, locale, field, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []model.TranslationVersion
	for rows.Next() {
		var v model.TranslationVersion
		var value sql.NullString
		var deleted sql.NullTime
		if err := rows.Scan(&v.Version, &value, &deleted); err != nil {
			return nil, err
		}
		v.Value = stringPtr(value)
		if deleted.Valid {
			t := deleted.Time
			v.DeletedAt = &t
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// HasTranslation reports whether an active row exists for the tuple.
func (e *Engine) HasTranslation(ctx context.Context, owner Owner, field, locale string) (bool, error) {
	ref := owner.TranslationRef()
	locale = e.displayLocale(ctx, locale)

	var n int
	err := e.db.QueryRowContext(ctx, e.dialect.Rebind(`
		SELECT COUNT(1)
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?
		   AND deleted_at IS NULL`),
		ref.Kind, ref.ID, locale, field).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking translation %s %s/%s: %w", ref, locale, field, err)
	}
	return n > 0, nil
}

// LatestTranslationVersion returns the highest version ever recorded for a
// tuple, soft-deleted included, or 0 when the tuple has no history.
func (e *Engine) LatestTranslationVersion(ctx context.Context, owner Owner, field, locale string) (int, error) {
	ref := owner.TranslationRef()
	locale = e.displayLocale(ctx, locale)

	var last int
	err := e.db.QueryRowContext(ctx, e.dialect.Rebind(`
		SELECT COALESCE(MAX(version), 0)
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ?`),
		ref.Kind, ref.ID, locale, field).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("reading latest version for %s %s/%s: %w", ref, locale, field, err)
	}
	return last, nil
}

// stringPtr converts a sql nullable into a pointer.
func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
