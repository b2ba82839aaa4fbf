package codec

import "fmt"

// asMap accepts the map shapes produced by the JSON, YAML and CBOR decoders.
func asMap(value any, path string) (map[string]any, error) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			str, ok := key.(string)
			if !ok {
				return nil, decodeErr(path, fmt.Errorf("%w: non-string key %v", ErrWrongType, key))
			}
			out[str] = v
		}
		return out, nil
	default:
		return nil, decodeErr(path, fmt.Errorf("%w: expected object, got %T", ErrWrongType, value))
	}
}

func requireString(m map[string]any, key, path string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", decodeErr(join(path, key), ErrMissingKey)
	}
	str, ok := raw.(string)
	if !ok {
		return "", decodeErr(join(path, key), fmt.Errorf("%w: expected string, got %T", ErrWrongType, raw))
	}
	return str, nil
}

func optionalString(m map[string]any, key, path string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	str, ok := raw.(string)
	if !ok {
		return "", decodeErr(join(path, key), fmt.Errorf("%w: expected string, got %T", ErrWrongType, raw))
	}
	return str, nil
}

func optionalBool(m map[string]any, key, path string) (bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, decodeErr(join(path, key), fmt.Errorf("%w: expected bool, got %T", ErrWrongType, raw))
	}
	return b, nil
}

func optionalList(m map[string]any, key, path string) ([]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch typed := raw.(type) {
	case []any:
		return typed, nil
	case []map[string]any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = typed[i]
		}
		return out, nil
	default:
		return nil, decodeErr(join(path, key), fmt.Errorf("%w: expected list, got %T", ErrWrongType, raw))
	}
}

func optionalStrings(m map[string]any, key, path string) ([]string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if typed, ok := raw.([]string); ok {
		return append([]string(nil), typed...), nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, decodeErr(join(path, key), fmt.Errorf("%w: expected list of strings, got %T", ErrWrongType, raw))
	}
	out := make([]string, 0, len(items))
	for idx, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, decodeErr(index(join(path, key), idx), fmt.Errorf("%w: expected string, got %T", ErrWrongType, item))
		}
		out = append(out, str)
	}
	return out, nil
}

func anyStrings(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
