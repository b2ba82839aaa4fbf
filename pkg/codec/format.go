package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

// Format converts wire trees to and from bytes.
type Format interface {
	// Name is the registry key ("json", "yaml", ...).
	Name() string
	// ContentType is the MIME type used by HTTP callers.
	ContentType() string
	// Marshal encodes a wire tree.
	Marshal(tree any) ([]byte, error)
	// Unmarshal decodes bytes into a wire tree.
	Unmarshal(data []byte) (any, error)
}

type jsonFormat struct{}

func (jsonFormat) Name() string        { return "json" }
func (jsonFormat) ContentType() string { return "application/json" }

func (jsonFormat) Marshal(tree any) ([]byte, error) {
	return json.MarshalIndent(tree, "", "  ")
}

func (jsonFormat) Unmarshal(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// jsoncFormat reads JSON extended with comments and trailing commas. Output
// is plain JSON.
type jsoncFormat struct {
	jsonFormat
}

func (jsoncFormat) Name() string { return "jsonc" }

func (jsoncFormat) Unmarshal(data []byte) (any, error) {
	return jsonFormat{}.Unmarshal(jsonc.ToJSON(data))
}

type yamlFormat struct{}

func (yamlFormat) Name() string        { return "yaml" }
func (yamlFormat) ContentType() string { return "application/yaml" }

func (yamlFormat) Marshal(tree any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlFormat) Unmarshal(data []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// cborFormat uses Core Deterministic Encoding so equal schemas always
// produce identical bytes.
type cborFormat struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORFormat() (cborFormat, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return cborFormat{}, fmt.Errorf("codec: cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return cborFormat{}, fmt.Errorf("codec: cbor decoder: %w", err)
	}
	return cborFormat{enc: enc, dec: dec}, nil
}

func (cborFormat) Name() string        { return "cbor" }
func (cborFormat) ContentType() string { return "application/cbor" }

func (f cborFormat) Marshal(tree any) ([]byte, error) {
	return f.enc.Marshal(tree)
}

func (f cborFormat) Unmarshal(data []byte) (any, error) {
	var out any
	if err := f.dec.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// JSON returns the JSON format.
func JSON() Format { return jsonFormat{} }

// JSONC returns the commented-JSON format.
func JSONC() Format { return jsoncFormat{} }

// YAML returns the YAML format.
func YAML() Format { return yamlFormat{} }

// CBOR returns the deterministic CBOR format.
func CBOR() Format { return defaultCBOR }

var defaultCBOR = mustCBOR()

func mustCBOR() cborFormat {
	f, err := newCBORFormat()
	if err != nil {
		panic(err)
	}
	return f
}

// EncodeSchema serialises s with the given format.
func EncodeSchema(format Format, s schema.Schema) ([]byte, error) {
	data, err := format.Marshal(SchemaToMap(s))
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", format.Name(), err)
	}
	return data, nil
}

// DecodeSchema parses bytes in the given format into a schema.
func DecodeSchema(format Format, data []byte) (schema.Schema, error) {
	tree, err := format.Unmarshal(data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("codec: decode %s: %w", format.Name(), err)
	}
	root, err := asMap(tree, "")
	if err != nil {
		return schema.Schema{}, err
	}
	return SchemaFromMap(root)
}

// EncodeFormState serialises an evaluation result with the given format.
func EncodeFormState(format Format, state schema.FormState) ([]byte, error) {
	data, err := format.Marshal(FormStateToMap(state))
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", format.Name(), err)
	}
	return data, nil
}
