// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import "context"

type localeCtxKey struct{}

// WithLocale returns a context carrying the caller's display locale. Read
// operations that take an empty locale resolve against it before falling
// back to the engine's configured default.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeCtxKey{}, locale)
}

// LocaleFrom extracts the display locale from the context, if set.
func LocaleFrom(ctx context.Context) (string, bool) {
	locale, ok := ctx.Value(localeCtxKey{}).(string)
	if !ok || locale == "" {
		return "", false
	}
	return locale, true
}
