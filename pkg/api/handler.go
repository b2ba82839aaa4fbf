// Package api exposes schema management, evaluation and bundle discovery
// over HTTP. Routes use the net/http pattern syntax and exchange JSON.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-mixinform/pkg/codec"
	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/schema"
	"github.com/goliatone/go-mixinform/pkg/store"
)

// Handler serves the schema API.
type Handler struct {
	store   store.Store
	opts    Options
	logger  *slog.Logger
	formats *codec.Registry
	mux     *http.ServeMux
}

var _ http.Handler = (*Handler)(nil)

// New builds a Handler over st.
func New(st store.Store, fns ...OptionFn) (*Handler, error) {
	if st == nil {
		return nil, errors.New("api: store is required")
	}
	opts := NewOptions(fns...)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Handler{
		store:   st,
		opts:    opts,
		logger:  logger,
		formats: codec.DefaultRegistry(),
		mux:     http.NewServeMux(),
	}
	h.routes()
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	if h.opts.Guard != nil {
		if err := h.opts.Guard(r); err != nil {
			code := http.StatusForbidden
			var httpErr HTTPError
			if errors.As(err, &httpErr) {
				code = httpErr.StatusCode()
			}
			writeJSON(rec, code, errorResponse{Error: http.StatusText(code)})
			h.logRequest(r, rec.status, started)
			return
		}
	}

	h.mux.ServeHTTP(rec, r)
	h.logRequest(r, rec.status, started)
}

func (h *Handler) logRequest(r *http.Request, status int, started time.Time) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "api: request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration", time.Since(started),
	)
}

// engineFor builds an engine for a stored schema.
func (h *Handler) engineFor(s schema.Schema) (*engine.Engine, error) {
	return engine.New(s, engine.WithMaxRounds(h.opts.MaxRounds), engine.WithLogger(h.logger))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "api: request failed", "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

// readTree decodes the request body into a wire tree, picking the format
// from Content-Type (JSON when absent). Authored strings must be plain text.
func (h *Handler) readTree(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	format := codec.JSON()
	if ct := r.Header.Get("Content-Type"); ct != "" {
		found, err := h.formats.ForContentType(ct)
		if err != nil {
			return nil, StatusError{Code: http.StatusUnsupportedMediaType, Err: err}
		}
		format = found
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, StatusError{Code: http.StatusRequestEntityTooLarge, Err: err}
		}
		return nil, badRequest(err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, badRequest(errors.New("request body required"))
	}

	tree, err := format.Unmarshal(body)
	if err != nil {
		return nil, badRequest(fmt.Errorf("invalid %s body: %w", format.Name(), err))
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return nil, badRequest(errors.New("request body must be an object"))
	}
	return root, nil
}

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

func plainTextPolicy() *bluemonday.Policy {
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy
}

// checkPlainText walks a decoded tree and rejects any key or string value
// that contains markup.
func checkPlainText(node any, path string) error {
	switch typed := node.(type) {
	case string:
		if !isPlainText(typed) {
			return badRequest(fmt.Errorf("%s: markup is not allowed in %q", pathOrRoot(path), typed))
		}
	case map[string]any:
		for key, value := range typed {
			child := key
			if path != "" {
				child = path + "." + key
			}
			if !isPlainText(key) {
				return badRequest(fmt.Errorf("%s: markup is not allowed in key %q", pathOrRoot(path), key))
			}
			if err := checkPlainText(value, child); err != nil {
				return err
			}
		}
	case []any:
		for idx, value := range typed {
			if err := checkPlainText(value, fmt.Sprintf("%s[%d]", path, idx)); err != nil {
				return err
			}
		}
	}
	return nil
}

// isPlainText reports whether the strict policy leaves the text of s intact.
// Entities and line endings are compared after decoding. An unterminated tag
// at the end of s is never rendered, so text like "a<b" passes.
func isPlainText(s string) bool {
	text := html.UnescapeString(lineEndings.Replace(s))
	kept := html.UnescapeString(plainTextPolicy().Sanitize(s))
	if kept == text {
		return true
	}
	rest, ok := strings.CutPrefix(text, kept)
	return ok && strings.HasPrefix(rest, "<") && !strings.Contains(rest, ">")
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func pathOrRoot(path string) string {
	if path == "" {
		return "body"
	}
	return path
}
