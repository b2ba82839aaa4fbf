package mixinform_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	mixinform "github.com/goliatone/go-mixinform"
	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/store"
	"github.com/goliatone/go-mixinform/pkg/testsupport"
)

const fixture = "testdata/schemas/resistors.yaml"

type goldenCase struct {
	Active []string       `json:"active"`
	Values map[string]any `json:"values"`
	State  any            `json:"state"`
}

func TestEvaluateGoldens(t *testing.T) {
	t.Parallel()

	e, err := mixinform.NewEngine(testsupport.LoadSchema(t, fixture))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	paths, err := filepath.Glob("testdata/golden/*.json")
	if err != nil || len(paths) == 0 {
		t.Fatalf("no goldens found: %v", err)
	}
	for _, path := range paths {
		path := path
		t.Run(strings.TrimSuffix(filepath.Base(path), ".json"), func(t *testing.T) {
			t.Parallel()

			var tc goldenCase
			if err := json.Unmarshal(testsupport.MustReadGolden(t, path), &tc); err != nil {
				t.Fatalf("decode golden: %v", err)
			}

			got := testsupport.StateTree(t, e.Evaluate(tc.Active, tc.Values))
			if os.Getenv("UPDATE_GOLDENS") != "" {
				tc.State = got
				testsupport.WriteGolden(t, path, tc)
				return
			}
			if diff := testsupport.CompareGolden(tc.State, got); diff != "" {
				t.Fatalf("form state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateFromSource(t *testing.T) {
	t.Parallel()

	state, err := mixinform.Evaluate(testsupport.Context(), store.SourceFromFile(fixture),
		[]string{"Resistor"}, map[string]any{"resistance": 5.0, "package": "0402"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff([]string{"Resistor", "ElectronicPackage", "SMD"}, state.ActiveMixins); diff != "" {
		t.Fatalf("active mismatch (-want +got):\n%s", diff)
	}
	if !state.Converged {
		t.Fatalf("expected convergence")
	}

	if _, err := mixinform.Evaluate(testsupport.Context(), store.SourceFromFile("testdata/missing.yaml"), nil, nil); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestEvaluateFromURL(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schemas/resistors.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src, err := store.SourceFromURL(srv.URL + "/schemas/resistors.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	state, err := mixinform.Evaluate(testsupport.Context(), src,
		[]string{"Resistor"}, map[string]any{"resistance": 5.0, "package": "0402"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff([]string{"Resistor", "ElectronicPackage", "SMD"}, state.ActiveMixins); diff != "" {
		t.Fatalf("active mismatch (-want +got):\n%s", diff)
	}

	_, err = mixinform.EvaluateWith(testsupport.Context(), store.NewLoader(), src, []string{"Resistor"}, nil)
	if err == nil || !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("expected loader without http to fail, got %v", err)
	}
}

func TestFixtureAgreesWithSample(t *testing.T) {
	t.Parallel()

	fromFile := engine.MustNew(testsupport.LoadSchema(t, fixture))
	sample := engine.MustNew(samples.Electronics())

	values := map[string]any{"resistance": 47.0, "package": "0402"}
	want := sample.Evaluate([]string{"Resistor"}, values)
	got := fromFile.Evaluate([]string{"Resistor"}, values)
	if diff := cmp.Diff(want.ActiveMixins, got.ActiveMixins); diff != "" {
		t.Fatalf("active mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.FieldNames(), got.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
}

func TestRootMixins(t *testing.T) {
	t.Parallel()

	s := samples.Electronics()
	s.RootMixins = append(s.RootMixins, "Ghost")

	var names []string
	for _, m := range mixinform.RootMixins(s) {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"Resistor", "Capacitor", "Resonator"}, names); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
}
