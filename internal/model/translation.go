// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"fmt"
	"time"
)

// AllowAllFields is the allow-list sentinel meaning every field may be translated.
const AllowAllFields = "*"

// OwnerRef is a tagged reference to the entity a translation row belongs to.
// Owners live in heterogeneous tables, so the reference is not backed by a
// database-level foreign key; resolving it to a concrete row is the caller's
// responsibility.
type OwnerRef struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// String returns the reference in "kind/id" form for log output.
func (r OwnerRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Translation represents one localized value of one field on one owner, at
// one version. At most one active (DeletedAt invalid) row exists per
// (owner, locale, field) tuple.
type Translation struct {
	ID        int64          `json:"id"`
	OwnerType string         `json:"owner_type"`
	OwnerID   int64          `json:"owner_id"`
	Locale    string         `json:"locale"`
	Field     string         `json:"field"`
	Value     sql.NullString `json:"value"`
	Version   int            `json:"version"`
	DeletedAt sql.NullTime   `json:"deleted_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Owner returns the owning entity reference of the row.
func (t *Translation) Owner() OwnerRef {
	return OwnerRef{Kind: t.OwnerType, ID: t.OwnerID}
}

// IsActive returns true if the row has not been soft-deleted.
func (t *Translation) IsActive() bool {
	return !t.DeletedAt.Valid
}

// ValuePtr returns the value as a nullable pointer.
func (t *Translation) ValuePtr() *string {
	if !t.Value.Valid {
		return nil
	}
	v := t.Value.String
	return &v
}

// TranslationVersion is one entry of a tuple's version history, newest first
// when returned by the engine.
type TranslationVersion struct {
	Version   int        `json:"version"`
	Value     *string    `json:"value"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Active returns true if this version is the tuple's current value.
func (v TranslationVersion) Active() bool {
	return v.DeletedAt == nil
}
