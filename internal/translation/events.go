// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"

	"github.com/olegiv/transtore/internal/model"
)

// Event type names, as seen by audit and webhook consumers.
const (
	EventTranslationStored    = "translation.stored"
	EventTranslationForgotten = "translation.forgotten"
)

// StoredEvent is emitted once per field after that field's persistence
// completes, carrying the owner, locale and the stored pair.
type StoredEvent struct {
	Owner  model.OwnerRef `json:"owner"`
	Locale string         `json:"locale"`
	Field  string         `json:"field"`
	Value  *string        `json:"value"`
}

// ForgottenEvent is emitted once per row removed by a forget operation,
// whether soft or hard deleted.
type ForgottenEvent struct {
	Record model.Translation `json:"record"`
	Forced bool              `json:"forced"`
}

// Listener receives engine notifications. Listeners run synchronously after
// persistence; they must not block for long and cannot veto the write.
type Listener interface {
	TranslationStored(ctx context.Context, ev StoredEvent)
	TranslationForgotten(ctx context.Context, ev ForgottenEvent)
}

func (e *Engine) notifyStored(ctx context.Context, ev StoredEvent) {
	for _, l := range e.listeners {
		l.TranslationStored(ctx, ev)
	}
}

func (e *Engine) notifyForgotten(ctx context.Context, ev ForgottenEvent) {
	for _, l := range e.listeners {
		l.TranslationForgotten(ctx, ev)
	}
}
