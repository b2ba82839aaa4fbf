// Package mixinform is the top-level entry point for mixin-driven forms.
// It re-exports the core types and wires the loader, engine and codec
// packages for callers that just want an evaluated form state.
package mixinform

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/schema"
	"github.com/goliatone/go-mixinform/pkg/store"
)

type (
	// Schema aliases schema.Schema.
	Schema = schema.Schema
	// Mixin aliases schema.Mixin.
	Mixin = schema.Mixin
	// Field aliases schema.Field.
	Field = schema.Field
	// Condition aliases schema.Condition.
	Condition = schema.Condition
	// FormState aliases schema.FormState.
	FormState = schema.FormState
	// Query aliases engine.Query for bundle discovery.
	Query = engine.Query
	// Discovery aliases engine.Discovery.
	Discovery = engine.Discovery
)

// NewEngine exposes the engine constructor from the top-level module.
func NewEngine(s Schema, options ...engine.Option) (*engine.Engine, error) {
	return engine.New(s, options...)
}

// LoadSchema reads a schema from a file, fs or URL source.
func LoadSchema(ctx context.Context, src store.Source, options ...store.LoaderOption) (Schema, error) {
	return store.NewLoader(options...).Load(ctx, src)
}

// DefaultHTTPTimeout bounds URL fetches made by Evaluate.
const DefaultHTTPTimeout = 10 * time.Second

// Evaluate loads the schema behind src and evaluates it once. File and URL
// sources work out of the box; fs sources need EvaluateWith and a loader
// built with store.WithFileSystem. Callers that evaluate repeatedly should
// keep an Engine instead.
func Evaluate(ctx context.Context, src store.Source, active []string, values map[string]any, options ...engine.Option) (FormState, error) {
	loader := store.NewLoader(store.WithHTTPFallback(DefaultHTTPTimeout))
	return EvaluateWith(ctx, loader, src, active, values, options...)
}

// EvaluateWith is Evaluate with a caller supplied loader.
func EvaluateWith(ctx context.Context, loader *store.Loader, src store.Source, active []string, values map[string]any, options ...engine.Option) (FormState, error) {
	if loader == nil {
		return FormState{}, fmt.Errorf("mixinform: loader is nil")
	}
	if src == nil {
		return FormState{}, fmt.Errorf("mixinform: source is nil")
	}
	s, err := loader.Load(ctx, src)
	if err != nil {
		return FormState{}, err
	}
	e, err := engine.New(s, options...)
	if err != nil {
		return FormState{}, fmt.Errorf("mixinform: %s: %w", src.Location(), err)
	}
	return e.Evaluate(active, values), nil
}

// RootMixins resolves the schema's root names to their mixins, skipping
// names the schema does not define.
func RootMixins(s Schema) []Mixin {
	out := make([]Mixin, 0, len(s.RootMixins))
	for _, name := range s.RootMixins {
		if mixin, ok := s.Mixin(name); ok {
			out = append(out, mixin)
		}
	}
	return out
}
