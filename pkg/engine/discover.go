package engine

import (
	"sort"
	"strings"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

// Query describes a bundle discovery request: which mixins could the given
// field trigger next. Value takes precedence over Prefix when both are set.
type Query struct {
	// Field is the trigger field to search for. Required.
	Field string
	// Value keeps candidates whose trigger matches this exact value (eq
	// equality or in membership). Nil means no value filter.
	Value any
	// Prefix keeps candidates whose name starts with Prefix, ignoring case.
	Prefix string
	// Active lists the currently active mixins. When non-empty each bundle
	// carries a preview of the intersection fields it would unlock.
	Active []string
}

// Bundle is a discovery candidate.
type Bundle struct {
	Name    string         `json:"name"`
	Fields  []schema.Field `json:"fields"`
	Preview []schema.Field `json:"preview,omitempty"`
}

// Discovery is the result of Discover.
type Discovery struct {
	Bundles            []Bundle       `json:"bundles"`
	IntersectionFields []schema.Field `json:"intersection_fields"`
}

// Discover scans the children of every mixin for triggers reading q.Field
// and returns the referenced mixins that pass the query filter. Mixins are
// visited in name order, children in declaration order; each candidate
// appears once even when several parents point to it. Nothing is evaluated
// or mutated.
func (e *Engine) Discover(q Query) Discovery {
	out := Discovery{
		Bundles:            []Bundle{},
		IntersectionFields: []schema.Field{},
	}
	if q.Field == "" {
		return out
	}

	names := make([]string, 0, len(e.schema.Mixins))
	for name := range e.schema.Mixins {
		names = append(names, name)
	}
	sort.Strings(names)

	prefix := strings.ToLower(q.Prefix)
	seen := make(map[string]struct{})

	for _, parentName := range names {
		parent := e.schema.Mixins[parentName]
		for _, child := range parent.Children {
			if child.Trigger == nil || child.Trigger.FieldName() != q.Field {
				continue
			}
			candidate, ok := e.schema.Mixin(child.Mixin)
			if !ok {
				continue
			}
			if _, dup := seen[candidate.Name]; dup {
				continue
			}

			var keep bool
			switch {
			case q.Value != nil:
				keep = triggeredBy(child.Trigger, q.Value)
			case prefix != "":
				keep = strings.HasPrefix(strings.ToLower(candidate.Name), prefix)
			default:
				keep = true
			}
			if !keep {
				continue
			}

			seen[candidate.Name] = struct{}{}
			out.Bundles = append(out.Bundles, Bundle{
				Name:   candidate.Name,
				Fields: candidate.Fields,
			})
		}
	}

	if len(q.Active) == 0 || len(out.Bundles) == 0 {
		return out
	}

	active := make(map[string]struct{}, len(q.Active))
	for _, name := range q.Active {
		active[name] = struct{}{}
	}
	for idx := range out.Bundles {
		preview := e.previewIntersections(active, out.Bundles[idx].Name)
		out.Bundles[idx].Preview = preview
		for _, f := range preview {
			if !containsField(out.IntersectionFields, f) {
				out.IntersectionFields = append(out.IntersectionFields, f)
			}
		}
	}
	return out
}

// triggeredBy reports whether value would satisfy trigger under its own
// operator. Only eq and in are considered; other operators never match.
func triggeredBy(trigger schema.Condition, value any) bool {
	cmp, ok := trigger.(schema.Compare)
	if !ok {
		return false
	}
	switch cmp.Op {
	case schema.OpEq, schema.OpIn:
		return cmp.Matches(map[string]any{cmp.Field: value})
	default:
		return false
	}
}

// previewIntersections lists the intersection fields that adding candidate
// to active would newly unlock. The active set is not modified.
func (e *Engine) previewIntersections(active map[string]struct{}, candidate string) []schema.Field {
	var preview []schema.Field
	for _, rule := range e.schema.Intersections {
		if satisfied(rule, active) {
			continue
		}
		if !satisfiedWith(rule, active, candidate) {
			continue
		}
		for _, f := range rule.Adds {
			if !containsField(preview, f) {
				preview = append(preview, f)
			}
		}
	}
	return preview
}

func satisfiedWith(rule schema.IntersectionRule, active map[string]struct{}, extra string) bool {
	for _, name := range rule.When {
		if name == extra {
			continue
		}
		if _, ok := active[name]; !ok {
			return false
		}
	}
	return true
}

func containsField(fields []schema.Field, f schema.Field) bool {
	for _, existing := range fields {
		if existing.Equal(f) {
			return true
		}
	}
	return false
}
