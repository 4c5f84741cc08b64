// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/olegiv/transtore/internal/model"
)

// Definition declares one translatable owner kind: which fields may be
// translated, whether history is versioned, and where the owner rows live
// for uniqueness scoping.
type Definition struct {
	Kind       string   `toml:"kind"`
	Fields     []string `toml:"fields"`
	Versioning bool     `toml:"versioning"`

	// Table is the owner's table name; only needed for parent-scoped
	// uniqueness checks.
	Table string `toml:"table"`
	// KeyColumn is the owner table's primary key column. Defaults to "id".
	KeyColumn string `toml:"key_column"`
	// ParentColumn is the owner table's parent reference column used by
	// parent-scoped uniqueness checks. Defaults to "parent_id".
	ParentColumn string `toml:"parent_column"`
}

// Owner binds the definition to a concrete owner id.
func (d Definition) Owner(id int64) Owner {
	return definedOwner{def: d, id: id}
}

// definedOwner is an Owner backed by a registry definition.
type definedOwner struct {
	def Definition
	id  int64
}

func (o definedOwner) TranslationRef() model.OwnerRef {
	return model.OwnerRef{Kind: o.def.Kind, ID: o.id}
}

func (o definedOwner) TranslatableFields() []string {
	return o.def.Fields
}

func (o definedOwner) TranslationVersioning() bool {
	return o.def.Versioning
}

// Registry maps owner kind names to their definitions.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Definition)}
}

// Register adds or replaces a kind definition.
func (r *Registry) Register(d Definition) error {
	if d.Kind == "" {
		return fmt.Errorf("translation: kind name must not be empty")
	}
	if len(d.Fields) == 0 {
		d.Fields = []string{model.AllowAllFields}
	}
	if d.KeyColumn == "" {
		d.KeyColumn = "id"
	}
	if d.ParentColumn == "" {
		d.ParentColumn = "parent_id"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[d.Kind] = d
	return nil
}

// Get returns the definition for a kind, or ErrUnknownKind.
func (r *Registry) Get(kind string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.kinds[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return d, nil
}

// Kinds returns the registered kind names.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	return out
}

// kindsFile is the TOML shape of the kinds declaration file.
type kindsFile struct {
	Kinds []Definition `toml:"kinds"`
}

// LoadKinds reads a TOML kinds declaration file into a registry.
//
// Example file:
//
//	[[kinds]]
//	kind = "post"
//	fields = ["title", "summary"]
//	versioning = true
//	table = "posts"
func LoadKinds(path string) (*Registry, error) {
	var file kindsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("loading kinds file %s: %w", path, err)
	}

	r := NewRegistry()
	for _, d := range file.Kinds {
		if err := r.Register(d); err != nil {
			return nil, fmt.Errorf("kinds file %s: %w", path, err)
		}
	}
	return r, nil
}
