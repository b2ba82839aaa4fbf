package schema

import "strings"

// valuesEqual compares two decoded values. Numbers compare by value across
// Go numeric types so a trigger decoded from YAML (int) still matches a value
// decoded from JSON (float64). Values of different kinds are never equal.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	if al, ok := asList(a); ok {
		bl, ok := asList(b)
		if !ok || len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !valuesEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}

	if am, ok := a.(map[string]any); ok {
		bm, ok := b.(map[string]any)
		if !ok || len(am) != len(bm) {
			return false
		}
		for key, av := range am {
			bv, ok := bm[key]
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}

	return false
}

// contains reports whether needle equals an element of haystack. A scalar
// haystack behaves like a one-element list.
func contains(haystack, needle any) bool {
	list, ok := asList(haystack)
	if !ok {
		return valuesEqual(haystack, needle)
	}
	for _, candidate := range list {
		if valuesEqual(candidate, needle) {
			return true
		}
	}
	return false
}

// ordered applies an ordering comparison between two values sharing a kind.
// Numbers use numeric order and strings lexicographic order; any other pairing
// is not ordered and yields false.
func ordered(actual, want any, accept func(int) bool) bool {
	if an, ok := toNumber(actual); ok {
		wn, ok := toNumber(want)
		if !ok {
			return false
		}
		switch {
		case an < wn:
			return accept(-1)
		case an > wn:
			return accept(1)
		default:
			return accept(0)
		}
	}
	as, ok := actual.(string)
	if !ok {
		return false
	}
	ws, ok := want.(string)
	if !ok {
		return false
	}
	return accept(strings.Compare(as, ws))
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	default:
		return nil, false
	}
}
