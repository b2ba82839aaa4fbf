package schema

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks the structural invariants the engine relies on: every
// trigger is present and every condition variant carries an operator it can
// evaluate. Dangling mixin names are deliberately not checked; they are
// accepted and contribute nothing at evaluation time.
func (s Schema) Validate() error {
	names := make([]string, 0, len(s.Mixins))
	for name := range s.Mixins {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		mixin := s.Mixins[name]
		for idx, child := range mixin.Children {
			path := fmt.Sprintf("mixins.%s.children[%d].trigger", name, idx)
			if err := validateCondition(child.Trigger, path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateCondition checks a single condition tree.
func ValidateCondition(c Condition) error {
	return validateCondition(c, "trigger")
}

func validateCondition(c Condition, path string) error {
	switch typed := c.(type) {
	case nil:
		return fmt.Errorf("schema: %s: condition is required", path)
	case Compare:
		if !typed.Op.comparison() {
			return fmt.Errorf("schema: %s: %w %q", path, ErrUnknownOperator, string(typed.Op))
		}
		return nil
	case IsSet:
		return nil
	case All:
		var errs []error
		for idx, nested := range typed.Conditions {
			if err := validateCondition(nested, fmt.Sprintf("%s.value[%d]", path, idx)); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("schema: %s: unsupported condition %T", path, c)
	}
}
