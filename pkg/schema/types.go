package schema

// FieldKind enumerates the input kinds a mixin field can declare.
type FieldKind string

const (
	FieldKindText   FieldKind = "text"
	FieldKindNumber FieldKind = "number"
	FieldKindEnum   FieldKind = "enum"
	FieldKindBool   FieldKind = "bool"
	FieldKindUnit   FieldKind = "unit"
	FieldKindFile   FieldKind = "file"
)

// Known reports whether k is one of the declared field kinds.
func (k FieldKind) Known() bool {
	switch k {
	case FieldKindText, FieldKindNumber, FieldKindEnum, FieldKindBool, FieldKindUnit, FieldKindFile:
		return true
	default:
		return false
	}
}

// Field describes a single input contributed by a mixin or an intersection
// rule. Options lists enum choices, or accepted MIME types for file fields.
// Unit carries the display unit for unit fields (for example "Ω").
type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     FieldKind `json:"type" yaml:"type"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Unit     string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

// Equal reports whether two fields carry the same definition.
func (f Field) Equal(other Field) bool {
	if f.Name != other.Name || f.Kind != other.Kind || f.Unit != other.Unit || f.Required != other.Required {
		return false
	}
	if len(f.Options) != len(other.Options) {
		return false
	}
	for i := range f.Options {
		if f.Options[i] != other.Options[i] {
			return false
		}
	}
	return true
}

// ChildMixin pairs a trigger with the name of the mixin it may activate. It
// belongs to exactly one parent Mixin and only fires while that parent is
// active.
type ChildMixin struct {
	Mixin   string
	Trigger Condition
}

// Mixin is a named bundle of fields plus the child mixins scoped to it.
type Mixin struct {
	Name     string
	Fields   []Field
	Children []ChildMixin
}

// IntersectionRule adds fields whenever every mixin in When is active at the
// same time. Rules live at schema level and are purely additive.
type IntersectionRule struct {
	When []string
	Adds []Field
}

// Schema is the root container: the mixins valid as starting points, the
// name-keyed mixin arena and the intersection rules.
type Schema struct {
	RootMixins    []string
	Mixins        map[string]Mixin
	Intersections []IntersectionRule
}

// Mixin looks up a mixin by name. Unknown names are not an error.
func (s Schema) Mixin(name string) (Mixin, bool) {
	if s.Mixins == nil {
		return Mixin{}, false
	}
	m, ok := s.Mixins[name]
	return m, ok
}

// FormState is the output of one evaluation: the closure of active mixins in
// first-activation order, the caller's field values passed through unchanged
// and the merged field list.
type FormState struct {
	ActiveMixins    []string       `json:"active_mixins"`
	FieldValues     map[string]any `json:"field_values"`
	AvailableFields []Field        `json:"available_fields"`

	// Converged is false when evaluation stopped at the round cap before
	// reaching a fixed point.
	Converged bool `json:"-"`
}

// FieldNames returns the names of the available fields in order.
func (s FormState) FieldNames() []string {
	names := make([]string, 0, len(s.AvailableFields))
	for _, f := range s.AvailableFields {
		names = append(names, f.Name)
	}
	return names
}

// IsActive reports whether the named mixin is part of the state.
func (s FormState) IsActive(name string) bool {
	for _, active := range s.ActiveMixins {
		if active == name {
			return true
		}
	}
	return false
}
