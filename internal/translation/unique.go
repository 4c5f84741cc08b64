// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
)

// identPattern restricts table and column names interpolated into the
// uniqueness query. Values always travel as bound parameters.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParentScope narrows a uniqueness check to owners matching conditions on
// the owner's own table, e.g. "unique per category".
type ParentScope struct {
	// Table is the owner table joined against translations.owner_id.
	Table string
	// KeyColumn is the owner table's primary key column. Defaults to "id".
	KeyColumn string
	// ParentColumn names the parent reference column filtered by ParentID.
	ParentColumn string
	// ParentID, when set, restricts the check to owners under this parent.
	ParentID *int64
	// Where adds arbitrary equality filters on the owner table.
	Where map[string]any
}

// UniqueCheckParams describes one uniqueness probe.
type UniqueCheckParams struct {
	// Kind is the owner kind whose translations are checked.
	Kind string
	// Versioned mirrors the kind's versioning flag: versioned kinds conflict
	// on any active row, unversioned kinds only on the active version-1 row.
	Versioned bool
	// Field and Locale scope the check; an empty Locale resolves to the
	// display locale.
	Field  string
	Locale string
	// Value is the candidate translation value.
	Value string
	// ExcludeOwnerID, when non-zero, ignores rows of that owner (update flows).
	ExcludeOwnerID int64
	// Parent optionally scopes the check through the owner table.
	Parent *ParentScope
}

// UniqueCheck reports whether the candidate value is free of conflicts: it
// returns true iff no active translation row matches (kind, locale, field,
// value) under the kind's versioning policy. The check is a plain SELECT and
// is safe to call repeatedly during validation.
func (e *Engine) UniqueCheck(ctx context.Context, p UniqueCheckParams) (bool, error) {
	locale := e.displayLocale(ctx, p.Locale)

	query := `SELECT COUNT(1) FROM translations t`
	var args []any

	if p.Parent != nil {
		keyCol := p.Parent.KeyColumn
		if keyCol == "" {
			keyCol = "id"
		}
		if err := validIdents(p.Parent.Table, keyCol); err != nil {
			return false, err
		}
		query += fmt.Sprintf(` JOIN %s p ON t.owner_id = p.%s`, p.Parent.Table, keyCol)
	}

	query += ` WHERE t.owner_type = ? AND t.locale = ? AND t.field = ? AND t.value = ? AND t.deleted_at IS NULL`
	args = append(args, p.Kind, locale, p.Field, p.Value)

	if !p.Versioned {
		query += ` AND t.version = 1`
	}

	if p.Parent != nil {
		if p.Parent.ParentID != nil {
			if err := validIdents(p.Parent.ParentColumn); err != nil {
				return false, err
			}
			query += fmt.Sprintf(` AND p.%s = ?`, p.Parent.ParentColumn)
			args = append(args, *p.Parent.ParentID)
		}

		// Deterministic clause order for stable queries and tests.
		cols := make([]string, 0, len(p.Parent.Where))
		for c := range p.Parent.Where {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			if err := validIdents(c); err != nil {
				return false, err
			}
			query += fmt.Sprintf(` AND p.%s = ?`, c)
			args = append(args, p.Parent.Where[c])
		}
	}

	if p.ExcludeOwnerID != 0 {
		query += ` AND t.owner_id <> ?`
		args = append(args, p.ExcludeOwnerID)
	}

	var n int
	if err := e.db.QueryRowContext(ctx, e.dialect.Rebind(query), args...).Scan(&n); err != nil {
		return false, fmt.Errorf("uniqueness check for %s.%s (%s): %w", p.Kind, p.Field, locale, err)
	}

	return n == 0, nil
}

// validIdents rejects table or column names outside the safe identifier set.
func validIdents(names ...string) error {
	for _, name := range names {
		if !identPattern.MatchString(name) {
			return fmt.Errorf("translation: invalid identifier %q in uniqueness scope", name)
		}
	}
	return nil
}
