// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST surface over the translation engine.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/transtore/internal/translation"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	engine   *translation.Engine
	registry *translation.Registry
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, engine *translation.Engine, registry *translation.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:       db,
		engine:   engine,
		registry: registry,
		logger:   logger,
	}
}

// Routes wires all API endpoints onto a router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.Healthz)

	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/unique", h.Unique)

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/deleted", h.OwnerDeleted)
			r.Post("/restored", h.OwnerRestored)
			r.Post("/force-deleted", h.OwnerForceDeleted)

			r.Route("/translations", func(r chi.Router) {
				r.Get("/", h.GetTranslations)
				r.Delete("/", h.ForgetTranslations)
				r.Put("/{locale}", h.PutTranslations)
				r.Get("/{locale}/{field}", h.GetTranslation)
				r.Delete("/{locale}/{field}", h.ForgetTranslation)
				r.Get("/{locale}/{field}/versions", h.GetVersions)
			})
		})
	})

	return r
}

// Response is the standard API response wrapper.
type Response struct {
	Data any `json:"data,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, message string, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", message, fieldErrors)
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Healthz returns service health including a database ping.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if err := h.db.PingContext(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// owner resolves the {kind}/{id} route pair into a registered owner.
// On failure it writes the error response and returns false.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (translation.Owner, bool) {
	kind := chi.URLParam(r, "kind")
	def, err := h.registry.Get(kind)
	if err != nil {
		WriteNotFound(w, "Unknown kind: "+kind)
		return nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid owner ID", nil)
		return nil, false
	}

	return def.Owner(id), true
}

// kindDef resolves the {kind} route parameter alone.
func (h *Handler) kindDef(w http.ResponseWriter, r *http.Request) (translation.Definition, bool) {
	kind := chi.URLParam(r, "kind")
	def, err := h.registry.Get(kind)
	if err != nil {
		WriteNotFound(w, "Unknown kind: "+kind)
		return translation.Definition{}, false
	}
	return def, true
}

// writeEngineError maps engine errors to API responses.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var disallowed *translation.DisallowedFieldError
	switch {
	case errors.As(err, &disallowed):
		details := make(map[string]string, len(disallowed.Fields))
		for _, f := range disallowed.Fields {
			details[f] = "field is not translatable"
		}
		WriteValidationError(w, disallowed.Error(), details)
	case errors.Is(err, translation.ErrEmptyLocale):
		WriteBadRequest(w, "Locale must not be empty", nil)
	default:
		h.logger.Error("translation request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Translation operation failed")
	}
}
