// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"database/sql"
	"fmt"
)

// Predicate is a composable SQL fragment matching owners by translated
// content. SQL has the shape "IN (SELECT t.owner_id ...)" so callers can
// prefix it with their own key column when embedding it in an owner query.
type Predicate struct {
	SQL  string
	Args []any
}

// EqualsPredicate matches owners with an active row where field's value
// exactly equals value. A nil locale matches across all locales.
func (e *Engine) EqualsPredicate(kind, field, value string, locale *string) Predicate {
	query := `IN (SELECT t.owner_id FROM translations t
		WHERE t.owner_type = ? AND t.field = ? AND t.value = ? AND t.deleted_at IS NULL`
	args := []any{kind, field, value}

	if locale != nil {
		query += ` AND t.locale = ?`
		args = append(args, *locale)
	}
	query += `)`

	return Predicate{SQL: query, Args: args}
}

// ContainsPredicate matches owners whose active value in one locale contains
// the needle, using the driver's case-insensitive operator where available.
func (e *Engine) ContainsPredicate(kind, field, needle, locale string) Predicate {
	query := fmt.Sprintf(`IN (SELECT t.owner_id FROM translations t
		WHERE t.owner_type = ? AND t.field = ? AND t.locale = ? AND t.deleted_at IS NULL
		AND %s)`, e.dialect.ContainsExpr())

	return Predicate{
		SQL:  query,
		Args: []any{kind, field, locale, "%" + needle + "%"},
	}
}

// SearchPredicate matches owners by best-effort relevance: the driver's
// native full-text predicate OR'd with a substring match, so search results
// stay useful when full-text misses; drivers without full-text degrade to
// the substring match alone.
func (e *Engine) SearchPredicate(kind, field, needle, locale string) Predicate {
	args := []any{kind, field, locale}

	var match string
	if ft, ok := e.dialect.FullTextExpr(); ok {
		match = fmt.Sprintf(`(%s OR %s)`, ft, e.dialect.ContainsExpr())
		args = append(args, needle, "%"+needle+"%")
	} else {
		match = e.dialect.ContainsExpr()
		args = append(args, "%"+needle+"%")
	}

	query := fmt.Sprintf(`IN (SELECT t.owner_id FROM translations t
		WHERE t.owner_type = ? AND t.field = ? AND t.locale = ? AND t.deleted_at IS NULL
		AND %s)`, match)

	return Predicate{SQL: query, Args: args}
}

// EqualsOwners returns the distinct owner IDs with an active exact-match
// row. A nil locale searches across all locales.
func (e *Engine) EqualsOwners(ctx context.Context, kind, field, value string, locale *string) ([]int64, error) {
	return e.ownerIDs(ctx, e.EqualsPredicate(kind, field, value, locale))
}

// ContainsOwners returns the distinct owner IDs whose value contains the
// needle within one locale. An empty locale resolves to the display locale.
func (e *Engine) ContainsOwners(ctx context.Context, kind, field, needle, locale string) ([]int64, error) {
	locale = e.displayLocale(ctx, locale)
	return e.ownerIDs(ctx, e.ContainsPredicate(kind, field, needle, locale))
}

// SearchOwners returns the distinct owner IDs matching a relevance search
// within one locale. An empty locale resolves to the display locale.
func (e *Engine) SearchOwners(ctx context.Context, kind, field, needle, locale string) ([]int64, error) {
	locale = e.displayLocale(ctx, locale)
	return e.ownerIDs(ctx, e.SearchPredicate(kind, field, needle, locale))
}

// ownerIDs runs a predicate standalone and collects the matching owner IDs.
func (e *Engine) ownerIDs(ctx context.Context, p Predicate) ([]int64, error) {
	query := `SELECT DISTINCT t.owner_id FROM translations t WHERE t.owner_id ` + p.SQL + ` ORDER BY t.owner_id`

	rows, err := e.db.QueryContext(ctx, e.dialect.Rebind(query), p.Args...)
	if err != nil {
		return nil, fmt.Errorf("searching translations: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
