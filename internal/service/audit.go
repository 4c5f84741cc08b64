// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/transtore/internal/model"
	"github.com/olegiv/transtore/internal/translation"
)

// AuditListener records engine notifications in the event log. It never
// fails the write that triggered it; audit errors are only logged.
type AuditListener struct {
	events *EventService
	logger *slog.Logger
}

// NewAuditListener creates a listener backed by the event service.
func NewAuditListener(events *EventService, logger *slog.Logger) *AuditListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditListener{events: events, logger: logger}
}

// TranslationStored implements translation.Listener.
func (l *AuditListener) TranslationStored(ctx context.Context, ev translation.StoredEvent) {
	err := l.events.LogInfo(ctx, model.EventCategoryTranslation,
		fmt.Sprintf("translation stored for %s", ev.Owner.String()),
		map[string]any{
			"event":  translation.EventTranslationStored,
			"owner":  ev.Owner.String(),
			"locale": ev.Locale,
			"field":  ev.Field,
		})
	logFailure(l.logger, translation.EventTranslationStored, err)
}

// TranslationForgotten implements translation.Listener.
func (l *AuditListener) TranslationForgotten(ctx context.Context, ev translation.ForgottenEvent) {
	err := l.events.LogInfo(ctx, model.EventCategoryTranslation,
		fmt.Sprintf("translation forgotten for %s", ev.Record.Owner().String()),
		map[string]any{
			"event":   translation.EventTranslationForgotten,
			"owner":   ev.Record.Owner().String(),
			"locale":  ev.Record.Locale,
			"field":   ev.Record.Field,
			"version": ev.Record.Version,
			"forced":  ev.Forced,
		})
	logFailure(l.logger, translation.EventTranslationForgotten, err)
}

var _ translation.Listener = (*AuditListener)(nil)
