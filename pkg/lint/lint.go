// Package lint performs static analysis of mixin schemas. It reports
// references to undefined mixins, unreachable mixins and questionable field
// definitions without evaluating anything.
package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

// Severity levels, most severe first.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue represents a problem found during static analysis.
type Issue struct {
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Mixin    string `json:"mixin,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// Result contains all issues found by the linter.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Count returns the number of issues with the given severity.
func (r Result) Count(severity string) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Run analyses s. Valid is false only when an error-level issue is present;
// warnings and info notes describe schemas that still evaluate.
func Run(s schema.Schema) Result {
	result := &Result{Valid: true, Issues: make([]Issue, 0)}

	names := sortedMixins(s)

	for _, root := range s.RootMixins {
		if _, ok := s.Mixins[root]; !ok {
			result.add(SeverityWarning, "unknown-root", root, "", fmt.Sprintf("root mixin %q is not defined", root))
		}
	}

	for _, name := range names {
		mixin := s.Mixins[name]
		if mixin.Name != name {
			result.add(SeverityWarning, "name-mismatch", name, "", fmt.Sprintf("mixin stored under %q is named %q", name, mixin.Name))
		}
		checkFields(result, name, mixin.Fields)

		for idx, child := range mixin.Children {
			if _, ok := s.Mixins[child.Mixin]; !ok {
				result.add(SeverityWarning, "unknown-child", name, "", fmt.Sprintf("child %d references undefined mixin %q", idx, child.Mixin))
			}
			checkCondition(result, name, child.Trigger, fmt.Sprintf("child %q trigger", child.Mixin))
		}
	}

	for idx, rule := range s.Intersections {
		for _, ref := range rule.When {
			if _, ok := s.Mixins[ref]; !ok {
				result.add(SeverityWarning, "unknown-intersection-mixin", ref, "", fmt.Sprintf("intersection %d requires undefined mixin %q", idx, ref))
			}
		}
		checkFields(result, fmt.Sprintf("intersections[%d]", idx), rule.Adds)
	}

	reachable := reachableFrom(s)
	for _, name := range names {
		if !reachable[name] {
			result.add(SeverityInfo, "unreachable", name, "", "mixin cannot be reached from any root mixin")
		}
	}

	checkKindConflicts(result, s, names)

	sort.SliceStable(result.Issues, func(i, j int) bool {
		a, b := result.Issues[i], result.Issues[j]
		if rank(a.Severity) != rank(b.Severity) {
			return rank(a.Severity) < rank(b.Severity)
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Mixin != b.Mixin {
			return a.Mixin < b.Mixin
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Message < b.Message
	})

	return *result
}

func checkFields(result *Result, owner string, fields []schema.Field) {
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if seen[field.Name] {
			result.add(SeverityWarning, "duplicate-field", owner, field.Name, "field is declared more than once")
		}
		seen[field.Name] = true

		if !field.Kind.Known() {
			result.add(SeverityError, "unknown-kind", owner, field.Name, fmt.Sprintf("unknown field type %q", field.Kind))
		}
		if field.Kind == schema.FieldKindEnum && len(field.Options) == 0 {
			result.add(SeverityWarning, "enum-without-options", owner, field.Name, "enum field has no options")
		}
	}
}

func checkCondition(result *Result, owner string, cond schema.Condition, where string) {
	if err := schema.ValidateCondition(cond); err != nil {
		result.add(SeverityError, "invalid-trigger", owner, "", fmt.Sprintf("%s: %v", where, err))
		return
	}
	walk(cond, func(c schema.Condition) {
		if all, ok := c.(schema.All); ok && len(all.Conditions) == 0 {
			result.add(SeverityWarning, "empty-and", owner, all.Field, where+" has an and condition with no branches; it always holds")
		}
	})
}

func walk(cond schema.Condition, visit func(schema.Condition)) {
	if cond == nil {
		return
	}
	visit(cond)
	if all, ok := cond.(schema.All); ok {
		for _, nested := range all.Conditions {
			walk(nested, visit)
		}
	}
}

// reachableFrom follows child edges from the roots, ignoring triggers.
func reachableFrom(s schema.Schema) map[string]bool {
	seen := make(map[string]bool, len(s.Mixins))
	queue := append([]string(nil), s.RootMixins...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		for _, child := range s.Mixins[name].Children {
			if !seen[child.Mixin] {
				queue = append(queue, child.Mixin)
			}
		}
	}
	return seen
}

func checkKindConflicts(result *Result, s schema.Schema, names []string) {
	kinds := make(map[string]map[schema.FieldKind]bool)
	record := func(f schema.Field) {
		if kinds[f.Name] == nil {
			kinds[f.Name] = make(map[schema.FieldKind]bool)
		}
		kinds[f.Name][f.Kind] = true
	}
	for _, name := range names {
		for _, f := range s.Mixins[name].Fields {
			record(f)
		}
	}
	for _, rule := range s.Intersections {
		for _, f := range rule.Adds {
			record(f)
		}
	}

	for field, set := range kinds {
		if len(set) < 2 {
			continue
		}
		list := make([]string, 0, len(set))
		for kind := range set {
			list = append(list, string(kind))
		}
		sort.Strings(list)
		result.add(SeverityInfo, "kind-conflict", "", field, "field is declared with different types: "+strings.Join(list, ", "))
	}
}

func sortedMixins(s schema.Schema) []string {
	names := make([]string, 0, len(s.Mixins))
	for name := range s.Mixins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func rank(severity string) int {
	switch severity {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

func (r *Result) add(severity, rule, mixin, field, message string) {
	if severity == SeverityError {
		r.Valid = false
	}
	r.Issues = append(r.Issues, Issue{
		Severity: severity,
		Rule:     rule,
		Mixin:    mixin,
		Field:    field,
		Message:  message,
	})
}
