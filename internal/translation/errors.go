// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Configuration errors, surfaced at setup time.
var (
	// ErrUnknownKind is returned when an owner kind has not been registered.
	ErrUnknownKind = errors.New("translation: unknown owner kind")

	// ErrUnsupportedDriver is returned when no dialect exists for the
	// configured database driver.
	ErrUnsupportedDriver = errors.New("translation: unsupported database driver")

	// ErrEmptyLocale is returned when a write is attempted without a locale.
	ErrEmptyLocale = errors.New("translation: locale must not be empty")
)

// DisallowedFieldError reports every submitted field that is outside an
// owner's allow-list. The write it aborted was not applied for any field.
type DisallowedFieldError struct {
	Kind   string
	Fields []string
}

// Error implements the error interface. All offending fields are listed in
// one message so the caller can fix the whole payload at once.
func (e *DisallowedFieldError) Error() string {
	fields := make([]string, len(e.Fields))
	copy(fields, e.Fields)
	sort.Strings(fields)
	return fmt.Sprintf("translation: model %q does not allow field(s) %s to be translated",
		e.Kind, strings.Join(fields, ", "))
}

// IsDisallowedField reports whether err is a DisallowedFieldError.
func IsDisallowedField(err error) bool {
	var dfe *DisallowedFieldError
	return errors.As(err, &dfe)
}
