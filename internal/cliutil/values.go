package cliutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-mixinform/pkg/codec"
)

// FormFlags collect the seed for an evaluation from the command line.
type FormFlags struct {
	Active []string
	Set    []string
	Values string
}

// AddFlags registers --active, --set and --values on fs.
func (f *FormFlags) AddFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.Active, "active", nil, "initially active mixins (comma separated)")
	fs.StringArrayVar(&f.Set, "set", nil, "field value as name=value; repeatable")
	fs.StringVar(&f.Values, "values", "", "field values as a JSON, JSONC or YAML object")
}

// FieldValues merges --values with --set pairs; --set wins.
func (f FormFlags) FieldValues() (map[string]any, error) {
	values := map[string]any{}
	if strings.TrimSpace(f.Values) != "" {
		format := codec.JSONC()
		if !strings.HasPrefix(strings.TrimSpace(f.Values), "{") {
			format = codec.YAML()
		}
		tree, err := format.Unmarshal([]byte(f.Values))
		if err != nil {
			return nil, fmt.Errorf("--values: %w", err)
		}
		obj, ok := tree.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("--values: expected an object, got %T", tree)
		}
		for key, value := range obj {
			values[key] = value
		}
	}
	for _, pair := range f.Set {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: expected name=value", pair)
		}
		values[name] = ParseScalar(raw)
	}
	return values, nil
}

// ParseScalar reads a command line value: finite numbers become float64, true
// and false become booleans, null becomes nil, anything else stays a string.
// Quote a value to keep it a string.
func ParseScalar(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if unquoted, err := strconv.Unquote(trimmed); err == nil {
		return unquoted
	}
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	return raw
}
