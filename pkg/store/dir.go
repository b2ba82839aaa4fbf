package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinform/pkg/codec"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

// schemaExtensions lists the readable file extensions in lookup order.
var schemaExtensions = []string{".json", ".jsonc", ".yaml", ".yml"}

// Dir stores one file per schema inside a directory. It reads JSON, JSONC
// and YAML files and always writes indented JSON.
type Dir struct {
	root string
}

var _ Store = (*Dir)(nil)

// NewDir returns a store rooted at dir, creating the directory if needed.
func NewDir(dir string) (*Dir, error) {
	if dir == "" {
		return nil, errors.New("store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	return &Dir{root: filepath.Clean(dir)}, nil
}

// Root returns the backing directory.
func (d *Dir) Root() string {
	return d.root
}

// Get implements Store.
func (d *Dir) Get(ctx context.Context, name string) (schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return schema.Schema{}, err
	}
	if err := ValidateName(name); err != nil {
		return schema.Schema{}, err
	}

	for _, ext := range schemaExtensions {
		file := filepath.Join(d.root, name+ext)
		data, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return schema.Schema{}, fmt.Errorf("store: read %s: %w", file, err)
		}
		return decodeFile(file, data)
	}
	return schema.Schema{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Put implements Store. Any previous file for the name in another format is
// removed so reads stay unambiguous.
func (d *Dir) Put(ctx context.Context, name string, s schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	data, err := codec.EncodeSchema(codec.JSON(), s)
	if err != nil {
		return err
	}

	target := filepath.Join(d.root, name+".json")
	tmp, err := os.CreateTemp(d.root, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: write %s: %w", target, err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", target, err)
	}

	for _, ext := range schemaExtensions[1:] {
		if err := os.Remove(filepath.Join(d.root, name+ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("store: remove stale %s%s: %w", name, ext, err)
		}
	}
	return nil
}

// Delete implements Store.
func (d *Dir) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := ValidateName(name); err != nil {
		return false, err
	}

	removed := false
	for _, ext := range schemaExtensions {
		err := os.Remove(filepath.Join(d.root, name+ext))
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("store: delete %s%s: %w", name, ext, err)
		}
	}
	return removed, nil
}

// List implements Store.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", d.root, err)
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isSchemaFile(entry.Name()) {
			continue
		}
		name := stem(entry.Name())
		if ValidateName(name) != nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LoadFS walks fsys and decodes every schema file it finds, keyed by the file
// stem. Two files sharing a stem are rejected. A nil fsys yields an empty map.
func LoadFS(fsys fs.FS) (map[string]schema.Schema, error) {
	out := make(map[string]schema.Schema)
	if fsys == nil {
		return out, nil
	}

	sources := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(p) {
			return nil
		}

		name := stem(path.Base(p))
		if err := ValidateName(name); err != nil {
			return fmt.Errorf("store: file %s: %w", p, err)
		}
		if previous, exists := sources[name]; exists {
			return fmt.Errorf("store: duplicate schema %q (files %s and %s)", name, previous, p)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("store: read %s: %w", p, err)
		}
		s, err := decodeFile(p, data)
		if err != nil {
			return err
		}
		sources[name] = p
		out[name] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeFile(file string, data []byte) (schema.Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return schema.Schema{}, fmt.Errorf("store: file %s is empty", file)
	}
	format, err := codec.FormatForPath(file)
	if err != nil {
		return schema.Schema{}, err
	}
	s, err := codec.DecodeSchema(format, data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("store: parse %s: %w", file, err)
	}
	return s, nil
}

func isSchemaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range schemaExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
