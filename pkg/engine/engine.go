package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

// ErrInvalidSchema wraps structural problems found when constructing an
// Engine.
var ErrInvalidSchema = errors.New("engine: invalid schema")

// Engine evaluates a Schema. It holds no per-call state and never mutates
// the schema, so one Engine may serve concurrent callers.
type Engine struct {
	schema    schema.Schema
	maxRounds int
	logger    *slog.Logger
}

// New validates the schema and returns an Engine over it.
func New(s schema.Schema, options ...Option) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	e := &Engine{
		schema:    s,
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e, nil
}

// MustNew panics when the schema is invalid. Useful for tests and
// package-level samples.
func MustNew(s schema.Schema, options ...Option) *Engine {
	e, err := New(s, options...)
	if err != nil {
		panic(err)
	}
	return e
}

// Schema returns the schema the engine evaluates.
func (e *Engine) Schema() schema.Schema {
	return e.schema
}

// RootMixins returns the schema's root mixins verbatim.
func (e *Engine) RootMixins() []string {
	return e.schema.RootMixins
}

// Evaluate computes the closure of active mixins for the supplied values
// using the engine's round cap.
func (e *Engine) Evaluate(active []string, values map[string]any) schema.FormState {
	return e.EvaluateRounds(active, values, e.maxRounds)
}

// EvaluateRounds is Evaluate with an explicit round cap for this call.
//
// Each round recomputes the field list from the active mixins in activation
// order, then scans the children of every active mixin (including mixins
// appended during the same scan) and activates those whose trigger matches,
// then appends intersection fields whose name is not yet present. Evaluation
// stops at the first round that activates nothing, or at the cap.
func (e *Engine) EvaluateRounds(active []string, values map[string]any, maxRounds int) schema.FormState {
	if maxRounds < 1 {
		maxRounds = 1
	}

	order := make([]string, 0, len(active))
	seen := make(map[string]struct{}, len(active))
	for _, name := range active {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	var fields []schema.Field
	rounds := 0
	converged := false

	for rounds < maxRounds {
		rounds++

		fields = e.collectFields(order)

		added := false
		for i := 0; i < len(order); i++ {
			mixin, ok := e.schema.Mixin(order[i])
			if !ok {
				continue
			}
			for _, child := range mixin.Children {
				if _, isActive := seen[child.Mixin]; isActive {
					continue
				}
				if child.Trigger == nil || !child.Trigger.Matches(values) {
					continue
				}
				seen[child.Mixin] = struct{}{}
				order = append(order, child.Mixin)
				added = true
			}
		}

		fields = e.applyIntersections(fields, seen)

		if !added {
			converged = true
			break
		}
	}

	if !converged && e.logger != nil {
		e.logger.Warn("engine: round cap reached before fixed point",
			slog.Int("max_rounds", maxRounds),
			slog.Int("active_mixins", len(order)),
		)
	}

	return schema.FormState{
		ActiveMixins:    order,
		FieldValues:     values,
		AvailableFields: fields,
		Converged:       converged,
	}
}

func (e *Engine) collectFields(order []string) []schema.Field {
	fields := make([]schema.Field, 0)
	for _, name := range order {
		mixin, ok := e.schema.Mixin(name)
		if !ok {
			continue
		}
		fields = append(fields, mixin.Fields...)
	}
	return fields
}

func (e *Engine) applyIntersections(fields []schema.Field, active map[string]struct{}) []schema.Field {
	if len(e.schema.Intersections) == 0 {
		return fields
	}
	present := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		present[f.Name] = struct{}{}
	}
	for _, rule := range e.schema.Intersections {
		if !satisfied(rule, active) {
			continue
		}
		for _, f := range rule.Adds {
			if _, exists := present[f.Name]; exists {
				continue
			}
			present[f.Name] = struct{}{}
			fields = append(fields, f)
		}
	}
	return fields
}

func satisfied(rule schema.IntersectionRule, active map[string]struct{}) bool {
	for _, name := range rule.When {
		if _, ok := active[name]; !ok {
			return false
		}
	}
	return true
}
