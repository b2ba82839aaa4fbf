package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOperator is returned when a trigger carries an operator tag that
// is not part of the supported set.
var ErrUnknownOperator = errors.New("schema: unknown operator")

// Operator is the wire tag of a trigger condition.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
	OpIn  Operator = "in"
	OpLt  Operator = "lt"
	OpGt  Operator = "gt"
	OpLte Operator = "lte"
	OpGte Operator = "gte"
	OpSet Operator = "set"
	OpAnd Operator = "and"
)

// ParseOperator validates a wire tag. Matching is exact; "EQ" is rejected.
func ParseOperator(raw string) (Operator, error) {
	switch op := Operator(raw); op {
	case OpEq, OpNeq, OpIn, OpLt, OpGt, OpLte, OpGte, OpSet, OpAnd:
		return op, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownOperator, raw)
	}
}

// comparison reports whether op is handled by the Compare variant.
func (op Operator) comparison() bool {
	switch op {
	case OpEq, OpNeq, OpIn, OpLt, OpGt, OpLte, OpGte:
		return true
	default:
		return false
	}
}

// Condition is a predicate over submitted field values. The set of
// implementations is closed: Compare, IsSet and All.
type Condition interface {
	// Matches evaluates the condition against the submitted values.
	Matches(values map[string]any) bool
	// FieldName returns the field the condition reads.
	FieldName() string
	// Operator returns the wire tag of the condition.
	Operator() Operator

	sealed()
}

// Compare applies a comparison operator between the submitted value of Field
// and Value. An absent field never matches.
type Compare struct {
	Field string
	Op    Operator
	Value any
}

// IsSet matches when Field holds a value other than null, "" or an empty list.
type IsSet struct {
	Field string
}

// All matches when every nested condition matches. Field is carried for the
// wire format only.
type All struct {
	Field      string
	Conditions []Condition
}

func (Compare) sealed() {}
func (IsSet) sealed()   {}
func (All) sealed()     {}

func (c Compare) FieldName() string { return c.Field }
func (c IsSet) FieldName() string   { return c.Field }
func (c All) FieldName() string     { return c.Field }

func (c Compare) Operator() Operator { return c.Op }
func (IsSet) Operator() Operator     { return OpSet }
func (All) Operator() Operator       { return OpAnd }

// Matches implements Condition.
func (c Compare) Matches(values map[string]any) bool {
	actual, ok := values[c.Field]
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return valuesEqual(actual, c.Value)
	case OpNeq:
		return !valuesEqual(actual, c.Value)
	case OpIn:
		return contains(c.Value, actual)
	case OpLt:
		return ordered(actual, c.Value, func(cmp int) bool { return cmp < 0 })
	case OpGt:
		return ordered(actual, c.Value, func(cmp int) bool { return cmp > 0 })
	case OpLte:
		return ordered(actual, c.Value, func(cmp int) bool { return cmp <= 0 })
	case OpGte:
		return ordered(actual, c.Value, func(cmp int) bool { return cmp >= 0 })
	default:
		// Validate rejects these before an engine is built.
		panic(fmt.Sprintf("schema: compare cannot evaluate operator %q", c.Op))
	}
}

// Matches implements Condition.
func (c IsSet) Matches(values map[string]any) bool {
	actual, ok := values[c.Field]
	if !ok || actual == nil {
		return false
	}
	if s, isString := actual.(string); isString {
		return s != ""
	}
	if list, isList := asList(actual); isList {
		return len(list) > 0
	}
	return true
}

// Matches implements Condition.
func (c All) Matches(values map[string]any) bool {
	for _, cond := range c.Conditions {
		if cond == nil || !cond.Matches(values) {
			return false
		}
	}
	return true
}

// NewCondition builds the variant for a parsed operator. For OpAnd the value
// must be a []Condition; for OpSet the value is ignored.
func NewCondition(field string, op Operator, value any) (Condition, error) {
	switch {
	case op == OpSet:
		return IsSet{Field: field}, nil
	case op == OpAnd:
		nested, ok := value.([]Condition)
		if !ok {
			return nil, fmt.Errorf("schema: and condition on %q requires nested conditions, got %T", field, value)
		}
		return All{Field: field, Conditions: nested}, nil
	case op.comparison():
		return Compare{Field: field, Op: op, Value: value}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownOperator, string(op))
	}
}

// Describe renders a condition in a compact human-readable form, used by
// lint messages and the CLI.
func Describe(c Condition) string {
	switch typed := c.(type) {
	case nil:
		return "<nil>"
	case Compare:
		return fmt.Sprintf("%s %s %v", typed.Field, typed.Op, typed.Value)
	case IsSet:
		return typed.Field + " set"
	case All:
		parts := make([]string, 0, len(typed.Conditions))
		for _, nested := range typed.Conditions {
			parts = append(parts, Describe(nested))
		}
		return "(" + strings.Join(parts, " and ") + ")"
	default:
		return fmt.Sprintf("%v", c)
	}
}
