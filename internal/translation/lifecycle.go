// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/transtore/internal/dbx"
)

// Binder buffers an owner's pending translation payload across its save
// cycle: the payload is validated and staged before the owner row is written
// and flushed to the engine once the save succeeds, so the raw payload is
// never persisted as an owner attribute.
type Binder struct {
	engine  *Engine
	owner   Owner
	pending map[string]map[string]*string
}

// Binder returns a lifecycle binder for one owner instance.
func (e *Engine) Binder(owner Owner) *Binder {
	return &Binder{engine: e, owner: owner}
}

// Stage validates a multi-locale payload against the owner's allow-list and
// buffers it. Violations across every locale are aggregated into a single
// *DisallowedFieldError so the caller sees the complete set at once; nothing
// is buffered on failure.
func (b *Binder) Stage(payload map[string]map[string]*string) error {
	ref := b.owner.TranslationRef()

	var bad []string
	seen := make(map[string]struct{})
	for _, fields := range payload {
		names := make([]string, 0, len(fields))
		for f := range fields {
			names = append(names, f)
		}
		for _, f := range disallowedFields(b.owner, names) {
			if _, dup := seen[f]; !dup {
				seen[f] = struct{}{}
				bad = append(bad, f)
			}
		}
	}
	if len(bad) > 0 {
		return &DisallowedFieldError{Kind: ref.Kind, Fields: bad}
	}

	b.pending = payload
	return nil
}

// Pending reports whether a staged payload is waiting to be flushed.
func (b *Binder) Pending() bool {
	return len(b.pending) > 0
}

// Flush writes the staged payload, one Translate call per locale, then
// clears the buffer. Safe to call with nothing staged.
func (b *Binder) Flush(ctx context.Context) error {
	for locale, fields := range b.pending {
		if len(fields) == 0 {
			continue
		}
		if err := b.engine.Translate(ctx, b.owner, locale, fields); err != nil {
			return err
		}
	}
	b.pending = nil
	return nil
}

// OwnerDeleted soft-deletes every active translation row of an owner. This
// is the policy for both soft-deleting owners and owners without soft-delete
// support: history is preserved even when the owner row itself is gone.
func (e *Engine) OwnerDeleted(ctx context.Context, owner Owner) error {
	ref := owner.TranslationRef()
	now := time.Now().UTC()

	_, err := e.db.ExecContext(ctx, e.dialect.Rebind(`
		UPDATE translations
		   SET deleted_at = ?, updated_at = ?
		 WHERE owner_type = ? AND owner_id = ?
		   AND deleted_at IS NULL`),
		now, now, ref.Kind, ref.ID)
	if err != nil {
		return fmt.Errorf("soft-deleting translations for %s: %w", ref, err)
	}

	e.invalidateOwner(ctx, ref.Kind, ref.ID)
	return nil
}

// OwnerRestored reactivates, for each (locale, field) tuple with any history,
// only the row with the highest version number; older versions stay
// soft-deleted.
func (e *Engine) OwnerRestored(ctx context.Context, owner Owner) error {
	ref := owner.TranslationRef()

	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx, e.dialect.Rebind(`
			SELECT locale, field, MAX(version)
			  FROM translations
			 WHERE owner_type = ? AND owner_id = ?
			 GROUP BY locale, field`),
			ref.Kind, ref.ID)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		type tuple struct {
			locale, field string
			version       int
		}
		var latest []tuple
		for rows.Next() {
			var t tuple
			if err := rows.Scan(&t.locale, &t.field, &t.version); err != nil {
				return err
			}
			latest = append(latest, t)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, t := range latest {
			_, err := tx.ExecContext(ctx, e.dialect.Rebind(`
				UPDATE translations
				   SET deleted_at = NULL, updated_at = ?
				 WHERE owner_type = ? AND owner_id = ? AND locale = ? AND field = ? AND version = ?`),
				now, ref.Kind, ref.ID, t.locale, t.field, t.version)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restoring translations for %s: %w", ref, err)
	}

	e.invalidateOwner(ctx, ref.Kind, ref.ID)
	return nil
}

// OwnerForceDeleted destroys every translation row of an owner, active and
// soft-deleted alike. No history survives.
func (e *Engine) OwnerForceDeleted(ctx context.Context, owner Owner) error {
	ref := owner.TranslationRef()

	_, err := e.db.ExecContext(ctx, e.dialect.Rebind(`
		DELETE FROM translations WHERE owner_type = ? AND owner_id = ?`),
		ref.Kind, ref.ID)
	if err != nil {
		return fmt.Errorf("force-deleting translations for %s: %w", ref, err)
	}

	e.invalidateOwner(ctx, ref.Kind, ref.ID)
	return nil
}
