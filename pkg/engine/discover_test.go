package engine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

func bundleNames(d engine.Discovery) []string {
	names := make([]string, 0, len(d.Bundles))
	for _, b := range d.Bundles {
		names = append(names, b.Name)
	}
	return names
}

func TestDiscoverFilters(t *testing.T) {
	t.Parallel()

	e := engine.MustNew(samples.SKU())

	cases := []struct {
		name  string
		query engine.Query
		want  []string
	}{
		{
			name:  "no filter returns every child",
			query: engine.Query{Field: "item_type"},
			want:  []string{"Resistor", "Capacitor", "Resonator", "Resin"},
		},
		{
			name:  "prefix is case insensitive",
			query: engine.Query{Field: "item_type", Prefix: "RES"},
			want:  []string{"Resistor", "Resonator", "Resin"},
		},
		{
			name:  "exact value matches eq",
			query: engine.Query{Field: "item_type", Value: "Resin"},
			want:  []string{"Resin"},
		},
		{
			name:  "value wins over prefix",
			query: engine.Query{Field: "item_type", Value: "Capacitor", Prefix: "res"},
			want:  []string{"Capacitor"},
		},
		{
			name:  "exact value matches in membership",
			query: engine.Query{Field: "package", Value: "TO-92"},
			want:  []string{"ThroughHole"},
		},
		{
			name:  "ordering operators never match a value",
			query: engine.Query{Field: "wire_gauge", Value: 14.0},
			want:  []string{},
		},
		{
			name:  "unknown field",
			query: engine.Query{Field: "colour"},
			want:  []string{},
		},
		{
			name:  "missing field",
			query: engine.Query{},
			want:  []string{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := e.Discover(tc.query)
			if diff := cmp.Diff(tc.want, bundleNames(got)); diff != "" {
				t.Fatalf("bundles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiscoverDeduplicatesSharedChildren(t *testing.T) {
	t.Parallel()

	shared := schema.Compare{Field: "kind", Op: schema.OpEq, Value: "x"}
	s := schema.Schema{
		Mixins: map[string]schema.Mixin{
			"A":      {Name: "A", Children: []schema.ChildMixin{{Mixin: "Shared", Trigger: shared}}},
			"B":      {Name: "B", Children: []schema.ChildMixin{{Mixin: "Shared", Trigger: shared}, {Mixin: "Missing", Trigger: shared}}},
			"Shared": {Name: "Shared", Fields: []schema.Field{{Name: "s", Kind: schema.FieldKindText}}},
		},
	}

	got := engine.MustNew(s).Discover(engine.Query{Field: "kind"})
	want := []engine.Bundle{{Name: "Shared", Fields: []schema.Field{{Name: "s", Kind: schema.FieldKindText}}}}
	if diff := cmp.Diff(want, got.Bundles); diff != "" {
		t.Fatalf("bundles mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverPreviewsIntersections(t *testing.T) {
	t.Parallel()

	e := engine.MustNew(samples.Electronics())
	tempCoefficient := schema.Field{Name: "temp_coefficient", Kind: schema.FieldKindUnit, Unit: "ppm/°C"}

	got := e.Discover(engine.Query{Field: "package", Active: []string{"Resistor", "ElectronicPackage"}})

	want := []engine.Bundle{
		{Name: "SMD", Fields: nil, Preview: []schema.Field{tempCoefficient}},
		{Name: "ThroughHole", Fields: []schema.Field{{Name: "wire_gauge", Kind: schema.FieldKindNumber}}},
	}
	if diff := cmp.Diff(want, got.Bundles); diff != "" {
		t.Fatalf("bundles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]schema.Field{tempCoefficient}, got.IntersectionFields); diff != "" {
		t.Fatalf("intersection fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverPreviewSkipsRulesAlreadySatisfied(t *testing.T) {
	t.Parallel()

	e := engine.MustNew(samples.Electronics())
	active := []string{"Resistor", "ElectronicPackage", "SMD"}

	got := e.Discover(engine.Query{Field: "package", Value: "0805", Active: active})
	if len(got.Bundles) != 1 || got.Bundles[0].Name != "SMD" {
		t.Fatalf("expected SMD only, got %v", bundleNames(got))
	}
	if len(got.Bundles[0].Preview) != 0 {
		t.Fatalf("expected no new fields, got %v", got.Bundles[0].Preview)
	}
	if len(got.IntersectionFields) != 0 {
		t.Fatalf("expected no intersection fields, got %v", got.IntersectionFields)
	}

	if diff := cmp.Diff([]string{"Resistor", "ElectronicPackage", "SMD"}, active); diff != "" {
		t.Fatalf("discover mutated the active list (-want +got):\n%s", diff)
	}
}
