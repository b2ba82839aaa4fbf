// Package store persists named schemas. Memory keeps deterministic CBOR
// snapshots in process; Dir keeps one authored file per schema on disk.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

var (
	// ErrNotFound is returned by Get when no schema is stored under a name.
	ErrNotFound = errors.New("store: schema not found")
	// ErrInvalidName rejects names that cannot be used as storage keys.
	ErrInvalidName = errors.New("store: invalid schema name")
)

// Store is the persistence contract shared by the API and the commands.
type Store interface {
	// Get returns an independent copy of the named schema.
	Get(ctx context.Context, name string) (schema.Schema, error)
	// Put creates or replaces the named schema.
	Put(ctx context.Context, name string, s schema.Schema) error
	// Delete removes the named schema and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// List returns the stored names in sorted order.
	List(ctx context.Context) ([]string, error)
}

// ValidateName rejects empty names, names containing path separators and
// names starting with a dot.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w %q: contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w %q: starts with a dot", ErrInvalidName, name)
	}
	return nil
}

// Import writes every schema into dst. Existing names are skipped unless
// overwrite is set. It returns the names written, sorted.
func Import(ctx context.Context, dst Store, schemas map[string]schema.Schema, overwrite bool) ([]string, error) {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		if !overwrite {
			_, err := dst.Get(ctx, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return written, err
			}
		}
		if err := dst.Put(ctx, name, schemas[name]); err != nil {
			return written, fmt.Errorf("store: import %q: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}
