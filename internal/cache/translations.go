// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// TranslationCache caches resolved current translation values on top of a
// generic backend. Per-owner invalidation uses a generation token: every
// value key embeds the owner's current generation, so dropping the
// generation key orphans all of that owner's cached values at once. The
// orphans simply age out; no key scan is required, which keeps the scheme
// cheap on Redis.
type TranslationCache struct {
	backend Cacher
	ttl     time.Duration
}

// NewTranslationCache wraps a backend with translation-aware keys.
// A zero ttl falls back to the backend's default TTL.
func NewTranslationCache(backend Cacher, ttl time.Duration) *TranslationCache {
	return &TranslationCache{backend: backend, ttl: ttl}
}

// Backend exposes the underlying cache, mainly for stats and shutdown.
func (c *TranslationCache) Backend() Cacher {
	return c.backend
}

func genKey(kind string, id int64) string {
	return fmt.Sprintf("translation:gen:%s:%d", kind, id)
}

func valueKey(kind string, id int64, gen uint64, locale, field string) string {
	return fmt.Sprintf("translation:val:%s:%d:%d:%s:%s", kind, id, gen, locale, field)
}

// generation returns the owner's current generation token, minting a fresh
// one when none is cached. A minted token is random so that keys written
// under an expired generation can never be resurrected.
func (c *TranslationCache) generation(ctx context.Context, kind string, id int64) (uint64, error) {
	gen, ok, err := c.currentGeneration(ctx, kind, id)
	if err != nil {
		return 0, err
	}
	if ok {
		return gen, nil
	}

	gen = rand.Uint64()
	if err := c.backend.Set(ctx, genKey(kind, id), []byte(strconv.FormatUint(gen, 10)), c.ttl); err != nil {
		return 0, err
	}
	return gen, nil
}

// currentGeneration reads the generation token without minting one.
func (c *TranslationCache) currentGeneration(ctx context.Context, kind string, id int64) (uint64, bool, error) {
	raw, err := c.backend.Get(ctx, genKey(kind, id))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return 0, false, nil
		}
		return 0, false, err
	}

	gen, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		// Corrupt token: treat as absent so a fresh one gets minted.
		return 0, false, nil
	}
	return gen, true, nil
}

// GetValue returns the cached current value for one translation tuple.
// The second return reports whether the tuple was cached; a cached nil
// value (explicit NULL) is a valid hit.
func (c *TranslationCache) GetValue(ctx context.Context, kind string, id int64, locale, field string) (*string, bool, error) {
	gen, ok, err := c.currentGeneration(ctx, kind, id)
	if err != nil || !ok {
		return nil, false, err
	}

	raw, err := c.backend.Get(ctx, valueKey(kind, id, gen, locale, field))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, nil
	}
	return value, true, nil
}

// SetValue caches the current value for one translation tuple. A nil value
// is cached as an explicit NULL so repeated misses skip the database.
func (c *TranslationCache) SetValue(ctx context.Context, kind string, id int64, locale, field string, value *string) error {
	gen, err := c.generation(ctx, kind, id)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, valueKey(kind, id, gen, locale, field), raw, c.ttl)
}

// InvalidateField drops the cached value of a single tuple.
func (c *TranslationCache) InvalidateField(ctx context.Context, kind string, id int64, locale, field string) error {
	gen, ok, err := c.currentGeneration(ctx, kind, id)
	if err != nil || !ok {
		return err
	}
	return c.backend.Delete(ctx, valueKey(kind, id, gen, locale, field))
}

// InvalidateOwner drops every cached value of an owner by retiring its
// generation token.
func (c *TranslationCache) InvalidateOwner(ctx context.Context, kind string, id int64) error {
	return c.backend.Delete(ctx, genKey(kind, id))
}
