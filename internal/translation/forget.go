// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/transtore/internal/model"
)

// ForgetTranslation removes one (field, locale) tuple of an owner.
// By default the active row is soft-deleted, preserving history; with force
// every row of the tuple, soft-deleted included, is destroyed. A forgotten
// notification is emitted per affected row.
func (e *Engine) ForgetTranslation(ctx context.Context, owner Owner, field, locale string, force bool) error {
	if locale == "" {
		return ErrEmptyLocale
	}
	return e.forget(ctx, owner, &locale, &field, force)
}

// ForgetTranslations removes all translations of an owner, optionally scoped
// to one locale. Soft-deletes by default; force destroys history.
func (e *Engine) ForgetTranslations(ctx context.Context, owner Owner, locale *string, force bool) error {
	return e.forget(ctx, owner, locale, nil, force)
}

func (e *Engine) forget(ctx context.Context, owner Owner, locale, field *string, force bool) error {
	ref := owner.TranslationRef()

	query := `
		SELECT id, owner_type, owner_id, locale, field, value, version, deleted_at, created_at, updated_at
		  FROM translations
		 WHERE owner_type = ? AND owner_id = ?`
	args := []any{ref.Kind, ref.ID}

	if locale != nil {
		query += ` AND locale = ?`
		args = append(args, *locale)
	}
	if field != nil {
		query += ` AND field = ?`
		args = append(args, *field)
	}
	if !force {
		// Soft forget only touches active rows.
		query += ` AND deleted_at IS NULL`
	}

	records, err := e.queryTranslations(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("forgetting translations for %s: %w", ref, err)
	}
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, rec := range records {
		if force {
			_, err = e.db.ExecContext(ctx, e.dialect.Rebind(`DELETE FROM translations WHERE id = ?`), rec.ID)
		} else {
			_, err = e.db.ExecContext(ctx, e.dialect.Rebind(`
				UPDATE translations SET deleted_at = ?, updated_at = ? WHERE id = ?`),
				now, now, rec.ID)
			rec.DeletedAt = sql.NullTime{Time: now, Valid: true}
			rec.UpdatedAt = now
		}
		if err != nil {
			return fmt.Errorf("forgetting translation row %d for %s: %w", rec.ID, ref, err)
		}

		e.notifyForgotten(ctx, ForgottenEvent{Record: rec, Forced: force})
	}

	e.invalidateOwner(ctx, ref.Kind, ref.ID)
	return nil
}

// queryTranslations runs a full-row select and scans the results.
func (e *Engine) queryTranslations(ctx context.Context, query string, args ...any) ([]model.Translation, error) {
	rows, err := e.db.QueryContext(ctx, e.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []model.Translation
	for rows.Next() {
		var t model.Translation
		if err := rows.Scan(
			&t.ID,
			&t.OwnerType,
			&t.OwnerID,
			&t.Locale,
			&t.Field,
			&t.Value,
			&t.Version,
			&t.DeletedAt,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
