// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/olegiv/transtore/internal/translation"
)

// SearchResponse lists the owner IDs matched by a content query.
type SearchResponse struct {
	Kind   string  `json:"kind"`
	Field  string  `json:"field"`
	Mode   string  `json:"mode"`
	Locale string  `json:"locale,omitempty"`
	IDs    []int64 `json:"ids"`
}

// Search handles GET /api/v1/{kind}/search?field=&q=&mode=&locale=.
// Modes: "equals" (exact value, any locale unless one is given), "contains"
// (case-insensitive substring) and "search" (full text where the driver
// supports it, substring otherwise).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	def, ok := h.kindDef(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	field := q.Get("field")
	needle := q.Get("q")
	mode := q.Get("mode")
	locale := q.Get("locale")

	if field == "" || needle == "" {
		WriteBadRequest(w, "Both field and q are required", nil)
		return
	}
	if mode == "" {
		mode = "search"
	}

	var (
		ids []int64
		err error
	)
	switch mode {
	case "equals":
		var loc *string
		if locale != "" {
			loc = &locale
		}
		ids, err = h.engine.EqualsOwners(r.Context(), def.Kind, field, needle, loc)
	case "contains":
		ids, err = h.engine.ContainsOwners(r.Context(), def.Kind, field, needle, locale)
	case "search":
		ids, err = h.engine.SearchOwners(r.Context(), def.Kind, field, needle, locale)
	default:
		WriteBadRequest(w, "Unknown mode: "+mode, map[string]string{
			"mode": "must be one of equals, contains, search",
		})
		return
	}
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	if ids == nil {
		ids = []int64{}
	}
	WriteSuccess(w, SearchResponse{
		Kind:   def.Kind,
		Field:  field,
		Mode:   mode,
		Locale: locale,
		IDs:    ids,
	})
}

// UniqueResponse reports a uniqueness probe result.
type UniqueResponse struct {
	Kind   string `json:"kind"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Unique bool   `json:"unique"`
}

// Unique handles GET /api/v1/{kind}/unique?field=&value=&locale=&exclude_id=&parent_id=.
// It answers whether the candidate value would violate the kind's
// translation uniqueness rule. With ?parent_id= the check is scoped through
// the kind's owner table.
func (h *Handler) Unique(w http.ResponseWriter, r *http.Request) {
	def, ok := h.kindDef(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	field := q.Get("field")
	value := q.Get("value")
	if field == "" || value == "" {
		WriteBadRequest(w, "Both field and value are required", nil)
		return
	}

	params := translation.UniqueCheckParams{
		Kind:      def.Kind,
		Versioned: def.Versioning,
		Field:     field,
		Locale:    q.Get("locale"),
		Value:     value,
	}

	if raw := q.Get("exclude_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteBadRequest(w, "Invalid exclude_id", nil)
			return
		}
		params.ExcludeOwnerID = id
	}

	if raw := q.Get("parent_id"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parentID <= 0 {
			WriteBadRequest(w, "Invalid parent_id", nil)
			return
		}
		if def.Table == "" {
			WriteBadRequest(w, "Kind has no owner table configured for parent scoping", nil)
			return
		}
		params.Parent = &translation.ParentScope{
			Table:        def.Table,
			KeyColumn:    def.KeyColumn,
			ParentColumn: def.ParentColumn,
			ParentID:     &parentID,
		}
	}

	unique, err := h.engine.UniqueCheck(r.Context(), params)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	WriteSuccess(w, UniqueResponse{
		Kind:   def.Kind,
		Field:  field,
		Value:  value,
		Unique: unique,
	})
}
