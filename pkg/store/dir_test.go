package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/store"
)

const yamlSchema = `root_mixins: [Selector]
mixins:
  Selector:
    name: Selector
    fields:
      - {name: kind, type: text}
    children:
      - mixin: Detail
        trigger: {field: kind, op: eq, value: detail}
  Detail:
    name: Detail
    fields:
      - {name: notes, type: text}
`

func newDir(t *testing.T) *store.Dir {
	t.Helper()

	d, err := store.NewDir(filepath.Join(t.TempDir(), "schemas"))
	if err != nil {
		t.Fatalf("new dir: %v", err)
	}
	return d
}

func TestDirPutWritesIndentedJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newDir(t)
	if err := d.Put(ctx, "batch", samples.Batch()); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(d.Root(), "batch.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"") {
		t.Fatalf("expected indented JSON, got %q", string(data[:20]))
	}

	got, err := d.Get(ctx, "batch")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	values := map[string]any{"source": "LCSC"}
	want := engine.MustNew(samples.Batch()).Evaluate([]string{"SourceSelector"}, values)
	if diff := cmp.Diff(want, engine.MustNew(got).Evaluate([]string{"SourceSelector"}, values)); diff != "" {
		t.Fatalf("stored schema behaves differently (-want +got):\n%s", diff)
	}
}

func TestDirReadsAuthoredYAMLAndReplacesIt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newDir(t)
	if err := os.WriteFile(filepath.Join(d.Root(), "notes.yml"), []byte(yamlSchema), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := d.Get(ctx, "notes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	state := engine.MustNew(s).Evaluate(s.RootMixins, map[string]any{"kind": "detail"})
	if diff := cmp.Diff([]string{"kind", "notes"}, state.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}

	if err := d.Put(ctx, "notes", s); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.Root(), "notes.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale yaml to be removed, stat err = %v", err)
	}

	names, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"notes"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestDirListAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newDir(t)
	for _, name := range []string{"sku", "decimal"} {
		if err := d.Put(ctx, name, samples.All()[name]); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(d.Root(), "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	names, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"decimal", "sku"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	removed, err := d.Delete(ctx, "sku")
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	if _, err := d.Get(ctx, "sku"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := d.Get(ctx, "../etc/passwd"); !errors.Is(err, store.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"schemas/notes.yaml": {Data: []byte(yamlSchema)},
		"schemas/commented.jsonc": {Data: []byte(`{
  // empty but valid
  "root_mixins": [],
  "mixins": {},
}`)},
		"schemas/README.md": {Data: []byte("skip me")},
	}

	loaded, err := store.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two schemas, got %d", len(loaded))
	}
	if diff := cmp.Diff([]string{"Selector"}, loaded["notes"].RootMixins); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}

	empty, err := store.LoadFS(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("nil fs = %v, %v", empty, err)
	}
}

func TestLoadFSRejectsProblems(t *testing.T) {
	t.Parallel()

	cases := map[string]fstest.MapFS{
		"duplicate stem": {
			"a/notes.yaml": {Data: []byte(yamlSchema)},
			"b/notes.yml":  {Data: []byte(yamlSchema)},
		},
		"empty file": {
			"notes.json": {Data: []byte("  \n")},
		},
		"missing roots": {
			"notes.json": {Data: []byte(`{"mixins": {}}`)},
		},
	}

	for name, fsys := range cases {
		if _, err := store.LoadFS(fsys); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
