package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/schema"
	"github.com/goliatone/go-mixinform/pkg/store"
)

func TestMemoryCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()

	if _, err := m.Get(ctx, "electronics"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, name := range []string{"sku", "electronics", "batch"} {
		if err := m.Put(ctx, name, samples.All()[name]); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	names, err := m.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"batch", "electronics", "sku"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	got, err := m.Get(ctx, "electronics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	values := map[string]any{"resistance": 100, "package": "0402"}
	want := engine.MustNew(samples.Electronics()).Evaluate([]string{"Resistor"}, values)
	if diff := cmp.Diff(want, engine.MustNew(got).Evaluate([]string{"Resistor"}, values)); diff != "" {
		t.Fatalf("stored schema behaves differently (-want +got):\n%s", diff)
	}

	removed, err := m.Delete(ctx, "electronics")
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = m.Delete(ctx, "electronics")
	if err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
}

func TestMemoryGetReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()
	if err := m.Put(ctx, "electronics", samples.Electronics()); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, err := m.Get(ctx, "electronics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.RootMixins[0] = "Mutated"
	first.Mixins["Resistor"].Fields[0].Name = "mutated"
	delete(first.Mixins, "SMD")

	second, err := m.Get(ctx, "electronics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.RootMixins[0] != "Resistor" {
		t.Fatalf("roots shared between copies: %v", second.RootMixins)
	}
	if second.Mixins["Resistor"].Fields[0].Name != "resistance" {
		t.Fatalf("fields shared between copies")
	}
	if _, ok := second.Mixin("SMD"); !ok {
		t.Fatalf("mixin map shared between copies")
	}
}

func TestMemoryRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	for _, name := range []string{"", "  ", "a/b", `a\b`, ".hidden"} {
		if err := m.Put(context.Background(), name, schema.Schema{}); !errors.Is(err, store.ErrInvalidName) {
			t.Fatalf("Put(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := store.NewMemory()
	if err := m.Put(ctx, "sku", samples.SKU()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := m.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestImportSkipsExistingUnlessOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()
	custom := schema.Schema{RootMixins: []string{"Only"}, Mixins: map[string]schema.Mixin{"Only": {Name: "Only"}}}
	if err := m.Put(ctx, "sku", custom); err != nil {
		t.Fatalf("put: %v", err)
	}

	written, err := store.Import(ctx, m, samples.All(), false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if diff := cmp.Diff([]string{"batch", "decimal", "electronics"}, written); diff != "" {
		t.Fatalf("written mismatch (-want +got):\n%s", diff)
	}
	kept, _ := m.Get(ctx, "sku")
	if diff := cmp.Diff([]string{"Only"}, kept.RootMixins); diff != "" {
		t.Fatalf("existing schema overwritten (-want +got):\n%s", diff)
	}

	written, err = store.Import(ctx, m, samples.All(), true)
	if err != nil {
		t.Fatalf("forced import: %v", err)
	}
	if len(written) != len(samples.Names()) {
		t.Fatalf("forced import wrote %v", written)
	}
	replaced, _ := m.Get(ctx, "sku")
	if diff := cmp.Diff([]string{"ItemTypeSelector"}, replaced.RootMixins); diff != "" {
		t.Fatalf("forced import did not replace sku (-want +got):\n%s", diff)
	}
}
