package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownFormat is returned when a format name or file extension has no
// registered Format.
var ErrUnknownFormat = errors.New("codec: unknown format")

// Registry stores formats by name, providing discovery and duplication
// safeguards.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]Format),
	}
}

// DefaultRegistry returns a registry holding json, jsonc, yaml and cbor.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(JSON())
	r.MustRegister(JSONC())
	r.MustRegister(YAML())
	r.MustRegister(CBOR())
	return r
}

// Register adds a format by its Name(). Duplicate names return an error.
func (r *Registry) Register(format Format) error {
	if format == nil {
		return fmt.Errorf("codec: format is required")
	}
	name := format.Name()
	if name == "" {
		return fmt.Errorf("codec: format name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formats[name]; exists {
		return fmt.Errorf("codec: format %q already registered", name)
	}

	r.formats[name] = format
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(format Format) {
	if err := r.Register(format); err != nil {
		panic(err)
	}
}

// Get retrieves a format by name.
func (r *Registry) Get(name string) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	format, ok := r.formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
	return format, nil
}

// ForContentType finds the format serving a MIME type, ignoring parameters
// such as charset.
func (r *Registry) ForContentType(contentType string) (Format, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.sortedNames() {
		format := r.formats[name]
		if format.ContentType() == mediaType {
			return format, nil
		}
	}
	return nil, fmt.Errorf("%w for content type %q", ErrUnknownFormat, contentType)
}

// ForPath picks a format from a file extension: .json, .jsonc, .yaml/.yml
// and .cbor.
func (r *Registry) ForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return r.Get(ext)
}

// List returns a sorted list of format names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatForPath resolves a file extension against the default registry.
func FormatForPath(path string) (Format, error) {
	return defaultRegistry.ForPath(path)
}

// Lookup resolves a format name against the default registry.
func Lookup(name string) (Format, error) {
	return defaultRegistry.Get(name)
}

var defaultRegistry = DefaultRegistry()
