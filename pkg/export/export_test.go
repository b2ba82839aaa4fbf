package export_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/export"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

func smdResistor(t *testing.T) schema.FormState {
	t.Helper()

	return engine.MustNew(samples.Electronics()).Evaluate([]string{"Resistor"}, map[string]any{
		"resistance": 100,
		"package":    "0402",
	})
}

func TestFormSchemaMapsKinds(t *testing.T) {
	t.Parallel()

	form := export.FormSchema(smdResistor(t), "resistor")

	if !form.Type.Is("object") {
		t.Fatalf("expected an object schema, got %v", form.Type)
	}
	if form.Title != "resistor" {
		t.Fatalf("title = %q", form.Title)
	}
	if diff := cmp.Diff([]string{"Resistor", "ElectronicPackage", "SMD"}, form.Extensions[export.ExtActiveMixins]); diff != "" {
		t.Fatalf("active mixins extension mismatch (-want +got):\n%s", diff)
	}

	resistance := form.Properties["resistance"].Value
	if !resistance.Type.Is("number") || resistance.Extensions[export.ExtUnit] != "Ω" {
		t.Fatalf("unexpected resistance schema %+v", resistance)
	}
	tolerance := form.Properties["tolerance"].Value
	if !tolerance.Type.Is("string") {
		t.Fatalf("enum must be a string, got %v", tolerance.Type)
	}
	if diff := cmp.Diff([]any{"1%", "5%", "10%"}, tolerance.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	coefficient := form.Properties["temp_coefficient"].Value
	if coefficient.Extensions[export.ExtUnit] != "ppm/°C" {
		t.Fatalf("intersection field lost its unit: %+v", coefficient.Extensions)
	}
	if len(form.Properties) != 4 {
		t.Fatalf("expected four properties, got %d", len(form.Properties))
	}
	if form.Required != nil {
		t.Fatalf("no field is required, got %v", form.Required)
	}
}

func TestFormSchemaBoolFileRequiredAndConflicts(t *testing.T) {
	t.Parallel()

	state := schema.FormState{
		ActiveMixins: []string{"A", "B"},
		AvailableFields: []schema.Field{
			{Name: "datasheet", Kind: schema.FieldKindFile, Options: []string{".pdf"}, Required: true},
			{Name: "final", Kind: schema.FieldKindBool},
			{Name: "final", Kind: schema.FieldKindText},
			{Name: "notes", Kind: schema.FieldKindText, Required: true},
		},
	}

	form := export.FormSchema(state, "mixed")

	datasheet := form.Properties["datasheet"].Value
	if !datasheet.Type.Is("string") || datasheet.Format != "binary" {
		t.Fatalf("unexpected file schema %+v", datasheet)
	}
	if diff := cmp.Diff([]string{".pdf"}, datasheet.Extensions[export.ExtAccept]); diff != "" {
		t.Fatalf("accept mismatch (-want +got):\n%s", diff)
	}
	if !form.Properties["final"].Value.Type.Is("boolean") {
		t.Fatalf("first definition must win")
	}
	if diff := cmp.Diff([]string{"datasheet", "notes"}, form.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	wantConflicts := []any{map[string]any{"name": "final", "type": "text"}}
	if diff := cmp.Diff(wantConflicts, form.Extensions[export.ExtConflicts]); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateValues(t *testing.T) {
	t.Parallel()

	form := export.FormSchema(smdResistor(t), "resistor")

	if err := export.ValidateValues(form, map[string]any{"resistance": 100, "tolerance": "5%", "package": "0402"}); err != nil {
		t.Fatalf("expected valid values: %v", err)
	}
	if err := export.ValidateValues(form, map[string]any{"tolerance": "3%"}); err == nil {
		t.Fatalf("expected an enum violation")
	}
	if err := export.ValidateValues(form, map[string]any{"resistance": "a lot"}); err == nil {
		t.Fatalf("expected a type violation")
	}

	required := export.FormSchema(schema.FormState{
		AvailableFields: []schema.Field{{Name: "notes", Kind: schema.FieldKindText, Required: true}},
	}, "notes")
	if err := export.ValidateValues(required, nil); err == nil {
		t.Fatalf("expected a missing required field")
	}
}

func TestDocumentValidates(t *testing.T) {
	t.Parallel()

	doc := export.Document(smdResistor(t), "electronics", "1.0.0")
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("document invalid: %v", err)
	}
	if _, ok := doc.Components.Schemas["electronics"]; !ok {
		t.Fatalf("missing component schema")
	}
}
