// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"github.com/olegiv/transtore/internal/model"
)

// Owner is the capability a translatable entity exposes to the engine. The
// allow-list is queried at write time, so owners may compute it dynamically
// from their own state.
type Owner interface {
	// TranslationRef identifies the owner as a polymorphic {kind, id} reference.
	TranslationRef() model.OwnerRef

	// TranslatableFields returns the field allow-list. A list containing
	// model.AllowAllFields permits every field.
	TranslatableFields() []string

	// TranslationVersioning reports whether writes append history. When
	// false, writes upsert a single version-1 row.
	TranslationVersioning() bool
}

// allowsAll reports whether the allow-list contains the wildcard sentinel.
func allowsAll(fields []string) bool {
	for _, f := range fields {
		if f == model.AllowAllFields {
			return true
		}
	}
	return false
}

// disallowedFields returns the submitted field names that are outside the
// owner's allow-list, or nil when everything is permitted.
func disallowedFields(owner Owner, submitted []string) []string {
	allowed := owner.TranslatableFields()
	if allowsAll(allowed) {
		return nil
	}

	set := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		set[f] = struct{}{}
	}

	var out []string
	for _, f := range submitted {
		if _, ok := set[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
