// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the service layer around the translation engine,
// including database-backed event logging for audit trails.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/transtore/internal/dbx"
	"github.com/olegiv/transtore/internal/model"
)

// EventService writes audit events to the events table.
type EventService struct {
	db     *sql.DB
	driver string
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, driver string) *EventService {
	return &EventService{db: db, driver: driver}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	query := dbx.Rebind(s.driver, `
		INSERT INTO events (level, category, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query, level, category, message, metadataJSON, time.Now().UTC())
	return err
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelError, category, message, metadata)
}

// RecentEvents returns the newest events, optionally filtered by category.
func (s *EventService) RecentEvents(ctx context.Context, category string, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, level, category, message, metadata, created_at
		FROM events`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, dbx.Rebind(s.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Level, &ev.Category, &ev.Message, &ev.Metadata, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		dbx.Rebind(s.driver, `DELETE FROM events WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// logFailure reports an audit write failure without failing the caller.
func logFailure(logger *slog.Logger, op string, err error) {
	if err != nil {
		logger.Error("event log write failed", "op", op, "error", err)
	}
}
