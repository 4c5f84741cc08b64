// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/olegiv/transtore/internal/translation"
)

// LocaleNegotiator resolves the display locale for a request against the
// configured locale set.
type LocaleNegotiator struct {
	locales       []string // configured codes, index-aligned with matcher tags
	matcher       language.Matcher
	defaultLocale string
}

// NewLocaleNegotiator builds a negotiator over the configured locales.
// Codes that do not parse as BCP 47 tags still work via exact matching;
// they are just excluded from Accept-Language negotiation.
func NewLocaleNegotiator(locales []string, defaultLocale string) *LocaleNegotiator {
	var tags []language.Tag
	var tagged []string
	for _, code := range locales {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		tagged = append(tagged, code)
	}

	n := &LocaleNegotiator{
		locales:       tagged,
		defaultLocale: defaultLocale,
	}
	if len(tags) > 0 {
		n.matcher = language.NewMatcher(tags)
	}
	return n
}

// Resolve picks the display locale for a request. Priority order:
//  1. Explicit ?locale= query parameter, when configured
//  2. Accept-Language negotiation over the configured set
//  3. The configured default
func (n *LocaleNegotiator) Resolve(r *http.Request) string {
	if q := r.URL.Query().Get("locale"); q != "" {
		if code, ok := n.exact(q); ok {
			return code
		}
	}

	if n.matcher != nil {
		if accept := r.Header.Get("Accept-Language"); accept != "" {
			desired, _, err := language.ParseAcceptLanguage(accept)
			if err == nil && len(desired) > 0 {
				if _, idx, conf := n.matcher.Match(desired...); conf > language.No {
					return n.locales[idx]
				}
			}
		}
	}

	return n.defaultLocale
}

// exact matches a requested code against the configured set, ignoring case.
func (n *LocaleNegotiator) exact(code string) (string, bool) {
	for _, l := range n.locales {
		if strings.EqualFold(l, code) {
			return l, true
		}
	}
	if strings.EqualFold(n.defaultLocale, code) {
		return n.defaultLocale, true
	}
	return "", false
}

// Middleware injects the resolved display locale into the request context.
// Handlers and the engine read it back via translation.LocaleFrom.
func (n *LocaleNegotiator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := n.Resolve(r)
			ctx := translation.WithLocale(r.Context(), locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
