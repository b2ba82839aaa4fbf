package codec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

var (
	// ErrMissingKey reports a required key absent from the input tree.
	ErrMissingKey = errors.New("codec: missing required key")
	// ErrWrongType reports a key holding a value of an unexpected type.
	ErrWrongType = errors.New("codec: wrong type")
)

// DecodeError locates a decoding failure inside the input tree.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(path string, err error) error {
	var existing *DecodeError
	if errors.As(err, &existing) {
		return err
	}
	return &DecodeError{Path: path, Err: err}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, idx int) string {
	return fmt.Sprintf("%s[%d]", path, idx)
}

// FieldToMap emits the compact wire form of a field: options, unit and
// required are omitted when empty or false.
func FieldToMap(f schema.Field) map[string]any {
	out := map[string]any{
		"name": f.Name,
		"type": string(f.Kind),
	}
	if len(f.Options) > 0 {
		out["options"] = anyStrings(f.Options)
	}
	if f.Unit != "" {
		out["unit"] = f.Unit
	}
	if f.Required {
		out["required"] = true
	}
	return out
}

// FieldFromMap decodes a field, defaulting the optional attributes.
func FieldFromMap(m map[string]any) (schema.Field, error) {
	return fieldFromMap(m, "")
}

func fieldFromMap(m map[string]any, path string) (schema.Field, error) {
	name, err := requireString(m, "name", path)
	if err != nil {
		return schema.Field{}, err
	}
	kind, err := requireString(m, "type", path)
	if err != nil {
		return schema.Field{}, err
	}
	options, err := optionalStrings(m, "options", path)
	if err != nil {
		return schema.Field{}, err
	}
	unit, err := optionalString(m, "unit", path)
	if err != nil {
		return schema.Field{}, err
	}
	required, err := optionalBool(m, "required", path)
	if err != nil {
		return schema.Field{}, err
	}
	return schema.Field{
		Name:     name,
		Kind:     schema.FieldKind(kind),
		Options:  options,
		Unit:     unit,
		Required: required,
	}, nil
}

// ConditionToMap emits {field, op, value}. For "and" the value is the list
// of nested condition maps; for "set" the value is true.
func ConditionToMap(c schema.Condition) map[string]any {
	switch typed := c.(type) {
	case schema.All:
		nested := make([]any, 0, len(typed.Conditions))
		for _, cond := range typed.Conditions {
			nested = append(nested, ConditionToMap(cond))
		}
		return map[string]any{"field": typed.Field, "op": string(schema.OpAnd), "value": nested}
	case schema.IsSet:
		return map[string]any{"field": typed.Field, "op": string(schema.OpSet), "value": true}
	case schema.Compare:
		return map[string]any{"field": typed.Field, "op": string(typed.Op), "value": typed.Value}
	default:
		return nil
	}
}

// ConditionFromMap decodes a trigger, recursing when the operator is "and".
// Unknown operators fail with schema.ErrUnknownOperator.
func ConditionFromMap(m map[string]any) (schema.Condition, error) {
	return conditionFromMap(m, "")
}

func conditionFromMap(m map[string]any, path string) (schema.Condition, error) {
	field, err := requireString(m, "field", path)
	if err != nil {
		return nil, err
	}
	rawOp, err := requireString(m, "op", path)
	if err != nil {
		return nil, err
	}
	op, err := schema.ParseOperator(rawOp)
	if err != nil {
		return nil, decodeErr(join(path, "op"), err)
	}

	value, hasValue := m["value"]
	if !hasValue && op != schema.OpSet {
		return nil, decodeErr(join(path, "value"), ErrMissingKey)
	}

	if op == schema.OpAnd {
		items, ok := value.([]any)
		if !ok {
			return nil, decodeErr(join(path, "value"), fmt.Errorf("%w: expected list of conditions, got %T", ErrWrongType, value))
		}
		nested := make([]schema.Condition, 0, len(items))
		for idx, item := range items {
			itemPath := index(join(path, "value"), idx)
			itemMap, err := asMap(item, itemPath)
			if err != nil {
				return nil, err
			}
			cond, err := conditionFromMap(itemMap, itemPath)
			if err != nil {
				return nil, err
			}
			nested = append(nested, cond)
		}
		return schema.All{Field: field, Conditions: nested}, nil
	}

	cond, err := schema.NewCondition(field, op, value)
	if err != nil {
		return nil, decodeErr(path, err)
	}
	return cond, nil
}

// ChildToMap emits {mixin, trigger}.
func ChildToMap(c schema.ChildMixin) map[string]any {
	return map[string]any{
		"mixin":   c.Mixin,
		"trigger": ConditionToMap(c.Trigger),
	}
}

// ChildFromMap decodes a child mixin entry.
func ChildFromMap(m map[string]any) (schema.ChildMixin, error) {
	return childFromMap(m, "")
}

func childFromMap(m map[string]any, path string) (schema.ChildMixin, error) {
	name, err := requireString(m, "mixin", path)
	if err != nil {
		return schema.ChildMixin{}, err
	}
	rawTrigger, ok := m["trigger"]
	if !ok {
		return schema.ChildMixin{}, decodeErr(join(path, "trigger"), ErrMissingKey)
	}
	triggerMap, err := asMap(rawTrigger, join(path, "trigger"))
	if err != nil {
		return schema.ChildMixin{}, err
	}
	trigger, err := conditionFromMap(triggerMap, join(path, "trigger"))
	if err != nil {
		return schema.ChildMixin{}, err
	}
	return schema.ChildMixin{Mixin: name, Trigger: trigger}, nil
}

// MixinToMap emits {name, fields, children}.
func MixinToMap(m schema.Mixin) map[string]any {
	fields := make([]any, 0, len(m.Fields))
	for _, f := range m.Fields {
		fields = append(fields, FieldToMap(f))
	}
	children := make([]any, 0, len(m.Children))
	for _, c := range m.Children {
		children = append(children, ChildToMap(c))
	}
	return map[string]any{
		"name":     m.Name,
		"fields":   fields,
		"children": children,
	}
}

// MixinFromMap decodes a mixin. fields and children default to empty.
func MixinFromMap(m map[string]any) (schema.Mixin, error) {
	return mixinFromMap(m, "")
}

func mixinFromMap(m map[string]any, path string) (schema.Mixin, error) {
	name, err := requireString(m, "name", path)
	if err != nil {
		return schema.Mixin{}, err
	}
	rawFields, err := optionalList(m, "fields", path)
	if err != nil {
		return schema.Mixin{}, err
	}
	fields, err := fieldsFromList(rawFields, join(path, "fields"))
	if err != nil {
		return schema.Mixin{}, err
	}
	rawChildren, err := optionalList(m, "children", path)
	if err != nil {
		return schema.Mixin{}, err
	}
	children := make([]schema.ChildMixin, 0, len(rawChildren))
	for idx, raw := range rawChildren {
		itemPath := index(join(path, "children"), idx)
		childMap, err := asMap(raw, itemPath)
		if err != nil {
			return schema.Mixin{}, err
		}
		child, err := childFromMap(childMap, itemPath)
		if err != nil {
			return schema.Mixin{}, err
		}
		children = append(children, child)
	}
	return schema.Mixin{Name: name, Fields: fields, Children: children}, nil
}

// IntersectionToMap emits {when, adds}.
func IntersectionToMap(r schema.IntersectionRule) map[string]any {
	adds := make([]any, 0, len(r.Adds))
	for _, f := range r.Adds {
		adds = append(adds, FieldToMap(f))
	}
	return map[string]any{
		"when": anyStrings(r.When),
		"adds": adds,
	}
}

// IntersectionFromMap decodes an intersection rule. when is required.
func IntersectionFromMap(m map[string]any) (schema.IntersectionRule, error) {
	return intersectionFromMap(m, "")
}

func intersectionFromMap(m map[string]any, path string) (schema.IntersectionRule, error) {
	if _, ok := m["when"]; !ok {
		return schema.IntersectionRule{}, decodeErr(join(path, "when"), ErrMissingKey)
	}
	when, err := optionalStrings(m, "when", path)
	if err != nil {
		return schema.IntersectionRule{}, err
	}
	rawAdds, err := optionalList(m, "adds", path)
	if err != nil {
		return schema.IntersectionRule{}, err
	}
	adds, err := fieldsFromList(rawAdds, join(path, "adds"))
	if err != nil {
		return schema.IntersectionRule{}, err
	}
	if when == nil {
		when = []string{}
	}
	return schema.IntersectionRule{When: when, Adds: adds}, nil
}

// SchemaToMap emits the full wire tree of a schema.
func SchemaToMap(s schema.Schema) map[string]any {
	mixins := make(map[string]any, len(s.Mixins))
	for name, m := range s.Mixins {
		mixins[name] = MixinToMap(m)
	}
	intersections := make([]any, 0, len(s.Intersections))
	for _, r := range s.Intersections {
		intersections = append(intersections, IntersectionToMap(r))
	}
	return map[string]any{
		"root_mixins":   anyStrings(s.RootMixins),
		"mixins":        mixins,
		"intersections": intersections,
	}
}

// SchemaFromMap decodes a schema. root_mixins and mixins are required;
// intersections defaults to empty.
func SchemaFromMap(m map[string]any) (schema.Schema, error) {
	if _, ok := m["root_mixins"]; !ok {
		return schema.Schema{}, decodeErr("root_mixins", ErrMissingKey)
	}
	roots, err := optionalStrings(m, "root_mixins", "")
	if err != nil {
		return schema.Schema{}, err
	}
	if roots == nil {
		roots = []string{}
	}

	rawMixins, ok := m["mixins"]
	if !ok {
		return schema.Schema{}, decodeErr("mixins", ErrMissingKey)
	}
	mixinMap, err := asMap(rawMixins, "mixins")
	if err != nil {
		return schema.Schema{}, err
	}

	keys := make([]string, 0, len(mixinMap))
	for key := range mixinMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	mixins := make(map[string]schema.Mixin, len(mixinMap))
	for _, key := range keys {
		path := join("mixins", key)
		entry, err := asMap(mixinMap[key], path)
		if err != nil {
			return schema.Schema{}, err
		}
		mixin, err := mixinFromMap(entry, path)
		if err != nil {
			return schema.Schema{}, err
		}
		mixins[key] = mixin
	}

	rawIntersections, err := optionalList(m, "intersections", "")
	if err != nil {
		return schema.Schema{}, err
	}
	intersections := make([]schema.IntersectionRule, 0, len(rawIntersections))
	for idx, raw := range rawIntersections {
		path := index("intersections", idx)
		entry, err := asMap(raw, path)
		if err != nil {
			return schema.Schema{}, err
		}
		rule, err := intersectionFromMap(entry, path)
		if err != nil {
			return schema.Schema{}, err
		}
		intersections = append(intersections, rule)
	}

	return schema.Schema{
		RootMixins:    roots,
		Mixins:        mixins,
		Intersections: intersections,
	}, nil
}

// FormStateToMap emits the evaluation output tree.
func FormStateToMap(state schema.FormState) map[string]any {
	fields := make([]any, 0, len(state.AvailableFields))
	for _, f := range state.AvailableFields {
		fields = append(fields, FieldToMap(f))
	}
	values := state.FieldValues
	if values == nil {
		values = map[string]any{}
	}
	return map[string]any{
		"active_mixins":    anyStrings(state.ActiveMixins),
		"field_values":     values,
		"available_fields": fields,
	}
}

func fieldsFromList(items []any, path string) ([]schema.Field, error) {
	fields := make([]schema.Field, 0, len(items))
	for idx, raw := range items {
		itemPath := index(path, idx)
		entry, err := asMap(raw, itemPath)
		if err != nil {
			return nil, err
		}
		f, err := fieldFromMap(entry, itemPath)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
