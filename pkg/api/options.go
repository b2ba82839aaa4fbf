package api

import (
	"log/slog"
	"net/http"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

// GuardFunc authorises a request before it reaches a route. Returning an
// error implementing HTTPError selects the response status; any other error
// yields 403.
type GuardFunc func(r *http.Request) error

// Options configures the API handler.
type Options struct {
	BasePath     string
	Logger       *slog.Logger
	MaxRounds    int
	MaxBodyBytes int64
	Samples      map[string]schema.Schema
	Guard        GuardFunc
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the defaults used by New.
func DefaultOptions() Options {
	return Options{
		BasePath:     "/api/schema",
		MaxRounds:    engine.DefaultMaxRounds,
		MaxBodyBytes: 1 << 20,
	}
}

// NewOptions applies fns over DefaultOptions and clamps invalid values.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.BasePath == "" {
		opts.BasePath = "/api/schema"
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = engine.DefaultMaxRounds
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Samples == nil {
		opts.Samples = samples.All()
	}
	return opts
}

// WithBasePath mounts the schema routes under path instead of /api/schema.
func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		o.BasePath = path
	}
}

// WithLogger sets the request and engine logger. Nil keeps logging off.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMaxRounds caps fixed-point rounds per evaluation.
func WithMaxRounds(n int) OptionFn {
	return func(o *Options) {
		o.MaxRounds = n
	}
}

// WithMaxBodyBytes limits request body size.
func WithMaxBodyBytes(n int64) OptionFn {
	return func(o *Options) {
		o.MaxBodyBytes = n
	}
}

// WithSamples sets the schemas written by the seed route. The default is
// the bundled sample set.
func WithSamples(seed map[string]schema.Schema) OptionFn {
	return func(o *Options) {
		o.Samples = seed
	}
}

// WithGuard installs a request guard.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.Guard = guard
	}
}
