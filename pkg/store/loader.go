package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-mixinform/pkg/codec"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

// Loader reads a single schema document from a Source. HTTP loading is off
// unless a client or the fallback is configured.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
	formats *codec.Registry
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	fileSystem    fs.FS
	httpClient    *http.Client
	allowFallback bool
	timeout       time.Duration
	formats       *codec.Registry
}

// WithFileSystem backs SourceKindFS lookups.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(o *loaderOptions) {
		o.fileSystem = files
	}
}

// WithHTTPClient enables URL sources through the given client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(o *loaderOptions) {
		o.httpClient = client
	}
}

// WithHTTPFallback enables URL sources through a default client with the
// given timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(o *loaderOptions) {
		o.allowFallback = true
		o.timeout = timeout
	}
}

// WithFormats overrides the format registry used to pick a decoder.
func WithFormats(r *codec.Registry) LoaderOption {
	return func(o *loaderOptions) {
		if r != nil {
			o.formats = r
		}
	}
}

// NewLoader applies options and returns a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	cfg := loaderOptions{formats: codec.DefaultRegistry()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var client *http.Client
	switch {
	case cfg.httpClient != nil:
		clone := *cfg.httpClient
		if cfg.timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = cfg.timeout
		}
		client = &clone
	case cfg.allowFallback:
		client = &http.Client{Timeout: cfg.timeout}
	}

	return &Loader{
		fs:      cfg.fileSystem,
		http:    client,
		timeout: cfg.timeout,
		formats: cfg.formats,
	}
}

// Load reads and decodes the schema at src. The format is picked from the
// file extension; URL responses may also be matched by Content-Type.
func (l *Loader) Load(ctx context.Context, src Source) (schema.Schema, error) {
	if src == nil {
		return schema.Schema{}, errors.New("store: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return schema.Schema{}, err
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if l.fs == nil {
			return schema.Schema{}, errors.New("store: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return schema.Schema{}, errors.New("store: http support disabled")
		}
		data, contentType, err = l.fetch(ctx, src.Location())
	default:
		err = fmt.Errorf("store: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.Schema{}, fmt.Errorf("store: load %s: %w", src.Location(), err)
	}

	format, err := l.formatFor(src, contentType)
	if err != nil {
		return schema.Schema{}, err
	}
	return decodeWith(format, src.Location(), data)
}

func (l *Loader) formatFor(src Source, contentType string) (codec.Format, error) {
	location := src.Location()
	if src.Kind() == SourceKindURL {
		if contentType != "" {
			if format, err := l.formats.ForContentType(contentType); err == nil {
				return format, nil
			}
		}
		if u, err := url.Parse(location); err == nil {
			location = u.Path
		}
		if filepath.Ext(location) == "" {
			return l.formats.Get("jsonc")
		}
	}
	return l.formats.ForPath(location)
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, string, error) {
	reqCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", errors.New("unexpected status " + resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeWith(format codec.Format, location string, data []byte) (schema.Schema, error) {
	s, err := codec.DecodeSchema(format, data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("store: parse %s: %w", location, err)
	}
	return s, nil
}
