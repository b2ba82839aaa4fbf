package engine_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

func newElectronics(t *testing.T, options ...engine.Option) *engine.Engine {
	t.Helper()

	e, err := engine.New(samples.Electronics(), options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestEvaluateActivatesPackageFromResistance(t *testing.T) {
	t.Parallel()

	state := newElectronics(t).Evaluate([]string{"Resistor"}, map[string]any{"resistance": 10000})

	want := []string{"Resistor", "ElectronicPackage"}
	if diff := cmp.Diff(want, state.ActiveMixins); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
	if !state.Converged {
		t.Fatalf("expected evaluation to converge")
	}
}

func TestEvaluateSMDAddsIntersectionField(t *testing.T) {
	t.Parallel()

	state := newElectronics(t).Evaluate([]string{"Resistor"}, map[string]any{
		"resistance": 10000,
		"package":    "0402",
	})

	if diff := cmp.Diff([]string{"Resistor", "ElectronicPackage", "SMD"}, state.ActiveMixins); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
	wantFields := []string{"resistance", "tolerance", "package", "temp_coefficient"}
	if diff := cmp.Diff(wantFields, state.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateThroughHoleExcludesSMD(t *testing.T) {
	t.Parallel()

	state := newElectronics(t).Evaluate([]string{"Resistor"}, map[string]any{
		"resistance": 100,
		"package":    "DIP",
	})

	if !state.IsActive("ThroughHole") {
		t.Fatalf("expected ThroughHole active, got %v", state.ActiveMixins)
	}
	if state.IsActive("SMD") {
		t.Fatalf("SMD must not be active for a DIP package, got %v", state.ActiveMixins)
	}
	for _, name := range state.FieldNames() {
		if name == "temp_coefficient" {
			t.Fatalf("temp_coefficient requires SMD")
		}
	}
}

func TestEvaluateDeepChain(t *testing.T) {
	t.Parallel()

	state := newElectronics(t).Evaluate([]string{"Resistor"}, map[string]any{
		"resistance": 100,
		"package":    "DIP",
		"wire_gauge": 14,
	})

	wantActive := []string{"Resistor", "ElectronicPackage", "ThroughHole", "HighCurrentWire"}
	if diff := cmp.Diff(wantActive, state.ActiveMixins); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
	wantFields := []string{"resistance", "tolerance", "package", "wire_gauge", "material"}
	if diff := cmp.Diff(wantFields, state.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateScopingIgnoresOrphanedTrigger(t *testing.T) {
	t.Parallel()

	s := samples.Electronics()
	pkg := s.Mixins["ElectronicPackage"]
	pkg.Children = []schema.ChildMixin{pkg.Children[1]}
	s.Mixins["ElectronicPackage"] = pkg

	e, err := engine.New(s)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	state := e.Evaluate([]string{"Resistor"}, map[string]any{"package": "0402"})
	if state.IsActive("SMD") {
		t.Fatalf("orphaned SMD activated: %v", state.ActiveMixins)
	}

	state = e.Evaluate([]string{"Resistor"}, map[string]any{"resistance": 5, "package": "0402"})
	if state.IsActive("SMD") {
		t.Fatalf("SMD has no parent pointing to it, got %v", state.ActiveMixins)
	}
}

func TestEvaluateScopingRequiresActiveParent(t *testing.T) {
	t.Parallel()

	// ElectronicPackage is never activated because resistance is missing, so
	// SMD stays inactive even though its own trigger holds.
	state := newElectronics(t).Evaluate([]string{"Resistor"}, map[string]any{"package": "0402"})

	if diff := cmp.Diff([]string{"Resistor"}, state.ActiveMixins); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateDeterministicAndIdempotent(t *testing.T) {
	t.Parallel()

	e := newElectronics(t)
	values := map[string]any{"resistance": 100, "package": "0603"}

	first := e.Evaluate([]string{"Resistor", "Capacitor"}, values)
	second := e.Evaluate([]string{"Resistor", "Capacitor"}, values)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("evaluation is not deterministic (-first +second):\n%s", diff)
	}

	again := e.Evaluate(first.ActiveMixins, values)
	if diff := cmp.Diff(first, again); diff != "" {
		t.Fatalf("re-running from the closure changed the state (-first +again):\n%s", diff)
	}
}

func TestEvaluateMonotonicAcrossRounds(t *testing.T) {
	t.Parallel()

	s := samples.Decimal()
	e, err := engine.New(s)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	values := map[string]any{"final1": false, "final2": false, "final3": false, "final4": false}

	var previous []string
	for rounds := 1; rounds <= 4; rounds++ {
		state := e.EvaluateRounds([]string{"Digit1"}, values, rounds)
		if len(state.ActiveMixins) < len(previous) {
			t.Fatalf("round cap %d shrank active set: %v -> %v", rounds, previous, state.ActiveMixins)
		}
		if diff := cmp.Diff(previous, state.ActiveMixins[:len(previous)]); len(previous) > 0 && diff != "" {
			t.Fatalf("round cap %d reordered active set (-previous +got):\n%s", rounds, diff)
		}
		previous = state.ActiveMixins
	}

	want := []string{"Digit1", "Digit2", "Digit3", "Digit4", "Digit5"}
	if diff := cmp.Diff(want, previous); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateRoundCapStopsSilently(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	e := newElectronics(t, engine.WithMaxRounds(1), engine.WithLogger(logger))

	state := e.Evaluate([]string{"Resistor"}, map[string]any{
		"resistance": 100,
		"package":    "DIP",
		"wire_gauge": 14,
	})

	if state.Converged {
		t.Fatalf("expected the cap to stop evaluation")
	}
	// Children activated in the capped round are kept, but their fields are
	// only collected at the start of a round.
	if diff := cmp.Diff([]string{"resistance", "tolerance"}, state.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
	if !state.IsActive("HighCurrentWire") {
		t.Fatalf("expected the chain to be activated within the first round, got %v", state.ActiveMixins)
	}
	if !strings.Contains(logs.String(), "round cap reached") {
		t.Fatalf("expected a warning log, got %q", logs.String())
	}
}

func TestEvaluateUnknownAndDuplicateSeeds(t *testing.T) {
	t.Parallel()

	state := newElectronics(t).Evaluate([]string{"Ghost", "Resistor", "Ghost", "Resistor"}, map[string]any{})

	if diff := cmp.Diff([]string{"Ghost", "Resistor"}, state.ActiveMixins); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"resistance", "tolerance"}, state.FieldNames()); diff != "" {
		t.Fatalf("unknown mixins must contribute nothing (-want +got):\n%s", diff)
	}
}

func TestEvaluateKeepsConflictingFieldNames(t *testing.T) {
	t.Parallel()

	s := schema.Schema{
		RootMixins: []string{"A", "B"},
		Mixins: map[string]schema.Mixin{
			"A": {Name: "A", Fields: []schema.Field{{Name: "size", Kind: schema.FieldKindNumber}}},
			"B": {Name: "B", Fields: []schema.Field{{Name: "size", Kind: schema.FieldKindEnum, Options: []string{"S", "M"}}}},
		},
		Intersections: []schema.IntersectionRule{
			{When: []string{"A", "B"}, Adds: []schema.Field{
				{Name: "size", Kind: schema.FieldKindText},
				{Name: "note", Kind: schema.FieldKindText},
				{Name: "note", Kind: schema.FieldKindBool},
			}},
		},
	}
	e := engine.MustNew(s)

	state := e.Evaluate([]string{"A", "B"}, nil)
	want := []schema.Field{
		{Name: "size", Kind: schema.FieldKindNumber},
		{Name: "size", Kind: schema.FieldKindEnum, Options: []string{"S", "M"}},
		{Name: "note", Kind: schema.FieldKindText},
	}
	if diff := cmp.Diff(want, state.AvailableFields); diff != "" {
		t.Fatalf("available fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateCyclicTriggersTerminate(t *testing.T) {
	t.Parallel()

	always := schema.IsSet{Field: "x"}
	s := schema.Schema{
		RootMixins: []string{"A"},
		Mixins: map[string]schema.Mixin{
			"A": {Name: "A", Children: []schema.ChildMixin{{Mixin: "B", Trigger: always}}},
			"B": {Name: "B", Children: []schema.ChildMixin{{Mixin: "A", Trigger: always}, {Mixin: "C", Trigger: always}}},
			"C": {Name: "C", Children: []schema.ChildMixin{{Mixin: "B", Trigger: always}}},
		},
	}

	state := engine.MustNew(s).Evaluate([]string{"A"}, map[string]any{"x": 1})
	if diff := cmp.Diff([]string{"A", "B", "C"}, state.ActiveMixins); diff != "" {
		t.Fatalf("active mixins mismatch (-want +got):\n%s", diff)
	}
	if !state.Converged {
		t.Fatalf("cycles must still converge")
	}
}

func TestEvaluatePassesValuesThrough(t *testing.T) {
	t.Parallel()

	values := map[string]any{"resistance": 1, "unrelated": "kept"}
	state := newElectronics(t).Evaluate([]string{"Resistor"}, values)

	if diff := cmp.Diff(values, state.FieldValues); diff != "" {
		t.Fatalf("field values mismatch (-want +got):\n%s", diff)
	}
}

func TestRootMixinsVerbatim(t *testing.T) {
	t.Parallel()

	s := samples.Electronics()
	s.RootMixins = append(s.RootMixins, "NotDefined")
	e := engine.MustNew(s)

	if diff := cmp.Diff([]string{"Resistor", "Capacitor", "Resonator", "NotDefined"}, e.RootMixins()); diff != "" {
		t.Fatalf("root mixins mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsInvalidConditions(t *testing.T) {
	t.Parallel()

	s := schema.Schema{
		Mixins: map[string]schema.Mixin{
			"A": {Name: "A", Children: []schema.ChildMixin{
				{Mixin: "B", Trigger: schema.Compare{Field: "x", Op: "approx", Value: 1}},
			}},
		},
	}

	_, err := engine.New(s)
	if !errors.Is(err, engine.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if !errors.Is(err, schema.ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator in chain, got %v", err)
	}
}
