// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/transtore/internal/model"
)

// TranslationResponse is one resolved translation value.
type TranslationResponse struct {
	Kind   string  `json:"kind"`
	ID     int64   `json:"id"`
	Locale string  `json:"locale"`
	Field  string  `json:"field"`
	Value  *string `json:"value"`
}

// PutTranslations handles PUT /api/v1/{kind}/{id}/translations/{locale}.
// The body is a flat object of field names to values; null clears a value
// without removing the field.
func (h *Handler) PutTranslations(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	locale := chi.URLParam(r, "locale")

	var fields map[string]*string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if len(fields) == 0 {
		WriteBadRequest(w, "No fields to translate", nil)
		return
	}

	if err := h.engine.Translate(r.Context(), owner, locale, fields); err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	ref := owner.TranslationRef()
	WriteSuccess(w, map[string]any{
		"kind":   ref.Kind,
		"id":     ref.ID,
		"locale": locale,
		"stored": len(fields),
	})
}

// GetTranslations handles GET /api/v1/{kind}/{id}/translations.
// Without ?locale= it returns {locale: {field: value}} across every locale;
// with it, a flat {field: value} map for that locale.
func (h *Handler) GetTranslations(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	if locale := r.URL.Query().Get("locale"); locale != "" {
		values, err := h.engine.GetTranslationsTo(r.Context(), owner, locale)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		WriteSuccess(w, values)
		return
	}

	values, err := h.engine.GetTranslations(r.Context(), owner, nil)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, values)
}

// GetTranslation handles GET /api/v1/{kind}/{id}/translations/{locale}/{field}.
// An optional ?version= pins a historical version instead of the current one.
func (h *Handler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	locale := chi.URLParam(r, "locale")
	field := chi.URLParam(r, "field")

	version := 0
	if q := r.URL.Query().Get("version"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			WriteBadRequest(w, "Invalid version", nil)
			return
		}
		version = v
	}

	value, err := h.engine.GetTranslation(r.Context(), owner, field, locale, version)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	ref := owner.TranslationRef()
	WriteSuccess(w, TranslationResponse{
		Kind:   ref.Kind,
		ID:     ref.ID,
		Locale: locale,
		Field:  field,
		Value:  value,
	})
}

// VersionResponse is one history entry of a translation tuple.
type VersionResponse struct {
	Version   int     `json:"version"`
	Value     *string `json:"value"`
	Active    bool    `json:"active"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

// GetVersions handles GET /api/v1/{kind}/{id}/translations/{locale}/{field}/versions.
// History is returned newest first and includes soft-deleted versions.
func (h *Handler) GetVersions(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	locale := chi.URLParam(r, "locale")
	field := chi.URLParam(r, "field")

	versions, err := h.engine.GetTranslationVersions(r.Context(), owner, field, locale)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		vr := VersionResponse{
			Version: v.Version,
			Value:   v.Value,
			Active:  v.Active(),
		}
		if v.DeletedAt != nil {
			s := v.DeletedAt.UTC().Format(time.RFC3339)
			vr.DeletedAt = &s
		}
		out = append(out, vr)
	}
	WriteSuccess(w, out)
}

// ForgetTranslation handles DELETE /api/v1/{kind}/{id}/translations/{locale}/{field}.
// Soft deletes by default; ?force=true removes the history rows.
func (h *Handler) ForgetTranslation(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	locale := chi.URLParam(r, "locale")
	field := chi.URLParam(r, "field")
	force := parseBool(r.URL.Query().Get("force"))

	if err := h.engine.ForgetTranslation(r.Context(), owner, field, locale, force); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgetTranslations handles DELETE /api/v1/{kind}/{id}/translations.
// Scope narrows with ?locale=; ?force=true removes rows outright.
func (h *Handler) ForgetTranslations(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var locale *string
	if q := r.URL.Query().Get("locale"); q != "" {
		locale = &q
	}
	force := parseBool(r.URL.Query().Get("force"))

	if err := h.engine.ForgetTranslations(r.Context(), owner, locale, force); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OwnerDeleted handles POST /api/v1/{kind}/{id}/deleted.
// Soft deletes every active translation of the owner.
func (h *Handler) OwnerDeleted(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.engine.OwnerDeleted(r.Context(), owner); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, lifecycleResult(owner, "deleted"))
}

// OwnerRestored handles POST /api/v1/{kind}/{id}/restored.
// Reactivates only the highest version per tuple.
func (h *Handler) OwnerRestored(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.engine.OwnerRestored(r.Context(), owner); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, lifecycleResult(owner, "restored"))
}

// OwnerForceDeleted handles POST /api/v1/{kind}/{id}/force-deleted.
// Hard deletes the owner's entire translation history.
func (h *Handler) OwnerForceDeleted(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.engine.OwnerForceDeleted(r.Context(), owner); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, lifecycleResult(owner, "force-deleted"))
}

func lifecycleResult(owner interface{ TranslationRef() model.OwnerRef }, status string) map[string]any {
	ref := owner.TranslationRef()
	return map[string]any{
		"kind":   ref.Kind,
		"id":     ref.ID,
		"status": status,
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
