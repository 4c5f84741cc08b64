// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance over the translation store,
// currently the retention purge of superseded soft-deleted versions.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/olegiv/transtore/internal/dbx"
	"github.com/olegiv/transtore/internal/model"
	"github.com/olegiv/transtore/internal/service"
)

// purgeSchedule runs the retention purge nightly, off peak.
const purgeSchedule = "0 3 * * *"

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	db            *sql.DB
	driver        string
	retentionDays int
	events        *service.EventService
	cron          *cron.Cron
	logger        *slog.Logger
}

// New creates a new scheduler instance. A retentionDays of 0 disables the
// purge job entirely.
func New(db *sql.DB, driver string, retentionDays int, events *service.EventService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:            db,
		driver:        driver,
		retentionDays: retentionDays,
		events:        events,
		cron:          cron.New(),
		logger:        logger,
	}
}

// Start registers the retention job and begins the cron loop.
func (s *Scheduler) Start() error {
	if s.retentionDays > 0 {
		_, err := s.cron.AddFunc(purgeSchedule, func() {
			if err := s.runPurge(); err != nil {
				s.logger.Error("retention purge failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// runPurge executes one retention pass and records the outcome.
func (s *Scheduler) runPurge() error {
	ctx := context.Background()
	runID := uuid.NewString()
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	s.logger.Info("retention purge starting", "run_id", runID, "cutoff", cutoff)

	removed, err := PurgeStaleVersions(ctx, s.db, s.driver, cutoff)
	if err != nil {
		if logErr := s.events.LogError(ctx, model.EventCategoryRetention,
			"retention purge failed",
			map[string]any{"run_id": runID, "error": err.Error()}); logErr != nil {
			s.logger.Warn("failed to log purge event", "error", logErr)
		}
		return err
	}

	s.logger.Info("retention purge finished", "run_id", runID, "removed", removed)

	if err := s.events.LogInfo(ctx, model.EventCategoryRetention,
		"retention purge finished",
		map[string]any{
			"run_id":  runID,
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		}); err != nil {
		s.logger.Warn("failed to log purge event", "error", err)
	}

	return nil
}

// PurgeStaleVersions hard deletes soft-deleted rows older than the cutoff,
// except each tuple's highest version. Keeping the maximum version row alive
// even when soft-deleted preserves the version counter, so version numbers
// are never reissued for a tuple.
//
// The derived-table wrapper around the inner select keeps the statement
// valid on MySQL, which rejects deleting from a table referenced directly
// in a subquery.
func PurgeStaleVersions(ctx context.Context, db *sql.DB, driver string, cutoff time.Time) (int64, error) {
	query := dbx.Rebind(driver, `
		DELETE FROM translations
		WHERE id IN (
			SELECT id FROM (
				SELECT t.id
				FROM translations t
				JOIN (
					SELECT owner_type, owner_id, locale, field, MAX(version) AS max_version
					FROM translations
					GROUP BY owner_type, owner_id, locale, field
				) m ON m.owner_type = t.owner_type
					AND m.owner_id = t.owner_id
					AND m.locale = t.locale
					AND m.field = t.field
				WHERE t.deleted_at IS NOT NULL
					AND t.deleted_at < ?
					AND t.version < m.max_version
			) stale
		)`)

	res, err := db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
