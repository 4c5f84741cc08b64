// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dbx

import (
	"strconv"
	"strings"

	"github.com/olegiv/transtore/internal/config"
)

// Rebind rewrites a query written with ? placeholders into the parameter
// format of the given driver. sqlite and mysql use ? natively; postgres
// uses ordinal $1, $2, ... markers.
func Rebind(driver, query string) string {
	if driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
