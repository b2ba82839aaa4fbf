// Package export describes an evaluated form as an OpenAPI 3 object schema so
// clients can render or validate it with standard tooling.
package export

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

// Extension keys written on the generated schemas.
const (
	ExtActiveMixins = "x-active-mixins"
	ExtConflicts    = "x-conflicts"
	ExtUnit         = "x-unit"
	ExtAccept       = "x-accept"
	ExtKind         = "x-field-type"
)

// FormSchema converts the available fields of state into an object schema.
// When several fields share a name the first one becomes the property and the
// later definitions are listed under x-conflicts.
func FormSchema(state schema.FormState, title string) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = title
	out.Extensions = map[string]any{
		ExtActiveMixins: append([]string{}, state.ActiveMixins...),
	}

	var (
		required  []string
		conflicts []any
	)
	for _, field := range state.AvailableFields {
		if _, exists := out.Properties[field.Name]; exists {
			conflicts = append(conflicts, map[string]any{
				"name": field.Name,
				"type": string(field.Kind),
			})
			continue
		}
		out.WithProperty(field.Name, propertySchema(field))
		if field.Required {
			required = append(required, field.Name)
		}
	}

	if len(required) > 0 {
		out.Required = required
	}
	if len(conflicts) > 0 {
		out.Extensions[ExtConflicts] = conflicts
	}
	return out
}

func propertySchema(field schema.Field) *openapi3.Schema {
	var prop *openapi3.Schema
	switch field.Kind {
	case schema.FieldKindNumber:
		prop = openapi3.NewFloat64Schema()
	case schema.FieldKindUnit:
		prop = openapi3.NewFloat64Schema()
	case schema.FieldKindBool:
		prop = openapi3.NewBoolSchema()
	case schema.FieldKindEnum:
		prop = openapi3.NewStringSchema()
		if len(field.Options) > 0 {
			values := make([]any, len(field.Options))
			for i, option := range field.Options {
				values[i] = option
			}
			prop.WithEnum(values...)
		}
	case schema.FieldKindFile:
		prop = openapi3.NewStringSchema().WithFormat("binary")
	default:
		prop = openapi3.NewStringSchema()
	}

	prop.Title = field.Name
	prop.Extensions = map[string]any{ExtKind: string(field.Kind)}
	if field.Unit != "" {
		prop.Extensions[ExtUnit] = field.Unit
	}
	if field.Kind == schema.FieldKindFile && len(field.Options) > 0 {
		prop.Extensions[ExtAccept] = append([]string{}, field.Options...)
	}
	return prop
}

// Document wraps the form schema in a minimal OpenAPI document under
// components.schemas[name].
func Document(state schema.FormState, name, version string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   name,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				name: openapi3.NewSchemaRef("", FormSchema(state, name)),
			},
		},
	}
}

// ValidateValues checks submitted values against a schema built by
// FormSchema. Every violation is reported.
func ValidateValues(form *openapi3.Schema, values map[string]any) error {
	if form == nil {
		return fmt.Errorf("export: form schema is nil")
	}
	normalised, err := normalise(values)
	if err != nil {
		return err
	}
	if err := form.VisitJSON(normalised, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("export: invalid values: %w", err)
	}
	return nil
}

// normalise converts values to the JSON value model the validator expects.
func normalise(values map[string]any) (map[string]any, error) {
	if values == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("export: encode values: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("export: decode values: %w", err)
	}
	return out, nil
}
