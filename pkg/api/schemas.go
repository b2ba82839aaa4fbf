package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinform/pkg/codec"
	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/export"
	"github.com/goliatone/go-mixinform/pkg/schema"
	"github.com/goliatone/go-mixinform/pkg/store"
)

type listResponse struct {
	Schemas []string `json:"schemas"`
}

type rootInfo struct {
	Name       string `json:"name"`
	FieldCount int    `json:"field_count"`
}

type rootsResponse struct {
	RootMixins []rootInfo `json:"root_mixins"`
}

type savedResponse struct {
	Message string         `json:"message"`
	Schema  map[string]any `json:"schema"`
}

type mixinResponse struct {
	Message string         `json:"message"`
	Mixin   map[string]any `json:"mixin"`
}

type rootListResponse struct {
	Message    string   `json:"message"`
	RootMixins []string `json:"root_mixins"`
}

type seedResponse struct {
	Message string   `json:"message"`
	Seeded  []string `json:"seeded"`
	Skipped []string `json:"skipped"`
}

type bundleResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Fields  []map[string]any `json:"fields"`
	Preview []map[string]any `json:"preview,omitempty"`
}

type searchResponse struct {
	Bundles            []bundleResponse `json:"bundles"`
	IntersectionFields []map[string]any `json:"intersection_fields"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Schemas: names})
}

func (h *Handler) load(r *http.Request) (string, schema.Schema, error) {
	name := r.PathValue("name")
	s, err := h.store.Get(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return name, schema.Schema{}, notFound(fmt.Errorf("schema '%s' not found", name))
	}
	return name, s, err
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.SchemaToMap(s))
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := store.ValidateName(name); err != nil {
		h.writeError(w, r, err)
		return
	}
	tree, err := h.readTree(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := checkPlainText(tree, ""); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := codec.SchemaFromMap(tree)
	if err != nil {
		h.writeError(w, r, badRequest(fmt.Errorf("invalid schema: %w", err)))
		return
	}
	if err := h.save(r, name, s); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, savedResponse{
		Message: fmt.Sprintf("schema '%s' saved", name),
		Schema:  codec.SchemaToMap(s),
	})
}

// save validates s and writes it to the store.
func (h *Handler) save(r *http.Request, name string, s schema.Schema) error {
	if err := s.Validate(); err != nil {
		return badRequest(fmt.Errorf("invalid schema: %w", err))
	}
	return h.store.Put(r.Context(), name, s)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	removed, err := h.store.Delete(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !removed {
		h.writeError(w, r, notFound(fmt.Errorf("schema '%s' not found", name)))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("schema '%s' deleted", name)})
}

func (h *Handler) roots(w http.ResponseWriter, r *http.Request) {
	_, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result := make([]rootInfo, 0, len(s.RootMixins))
	for _, root := range s.RootMixins {
		if mixin, ok := s.Mixin(root); ok {
			result = append(result, rootInfo{Name: mixin.Name, FieldCount: len(mixin.Fields)})
		}
	}
	writeJSON(w, http.StatusOK, rootsResponse{RootMixins: result})
}

// evaluationInput reads {active_mixins, field_values} from the body.
func (h *Handler) evaluationInput(w http.ResponseWriter, r *http.Request) ([]string, map[string]any, error) {
	tree, err := h.readTree(w, r)
	if err != nil {
		return nil, nil, err
	}
	active := []string{}
	if raw, ok := tree["active_mixins"]; ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			return nil, nil, badRequest(errors.New("active_mixins must be a list of strings"))
		}
		for _, item := range items {
			str, ok := item.(string)
			if !ok {
				return nil, nil, badRequest(errors.New("active_mixins must be a list of strings"))
			}
			active = append(active, str)
		}
	}
	values := map[string]any{}
	if raw, ok := tree["field_values"]; ok && raw != nil {
		typed, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, badRequest(errors.New("field_values must be an object"))
		}
		values = typed
	}
	return active, values, nil
}

func (h *Handler) evaluated(w http.ResponseWriter, r *http.Request) (string, schema.FormState, bool) {
	name, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return "", schema.FormState{}, false
	}
	active, values, err := h.evaluationInput(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return "", schema.FormState{}, false
	}
	e, err := h.engineFor(s)
	if err != nil {
		h.writeError(w, r, err)
		return "", schema.FormState{}, false
	}
	return name, e.Evaluate(active, values), true
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.evaluated(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, codec.FormStateToMap(state))
}

func (h *Handler) openapi(w http.ResponseWriter, r *http.Request) {
	name, state, ok := h.evaluated(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, export.FormSchema(state, name))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	_, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	field := query.Get("field")
	if field == "" {
		h.writeError(w, r, badRequest(errors.New("field parameter required")))
		return
	}
	q := engine.Query{Field: field, Prefix: query.Get("q")}
	if value := query.Get("value"); value != "" {
		q.Value = value
	}
	for _, part := range strings.Split(query.Get("active"), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			q.Active = append(q.Active, trimmed)
		}
	}

	e, err := h.engineFor(s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	found := e.Discover(q)

	out := searchResponse{
		Bundles:            make([]bundleResponse, 0, len(found.Bundles)),
		IntersectionFields: fieldMaps(found.IntersectionFields),
	}
	for _, b := range found.Bundles {
		bundle := bundleResponse{ID: b.Name, Name: b.Name, Fields: fieldMaps(b.Fields)}
		if len(b.Preview) > 0 {
			bundle.Preview = fieldMaps(b.Preview)
		}
		out.Bundles = append(out.Bundles, bundle)
	}
	writeJSON(w, http.StatusOK, out)
}

func fieldMaps(fields []schema.Field) []map[string]any {
	out := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, codec.FieldToMap(f))
	}
	return out
}

func (h *Handler) putMixin(w http.ResponseWriter, r *http.Request) {
	name, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mixinName := r.PathValue("mixin")

	tree, err := h.readTree(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tree["name"] = mixinName
	if err := checkPlainText(tree, ""); err != nil {
		h.writeError(w, r, err)
		return
	}
	mixin, err := codec.MixinFromMap(tree)
	if err != nil {
		h.writeError(w, r, badRequest(fmt.Errorf("invalid mixin: %w", err)))
		return
	}

	if s.Mixins == nil {
		s.Mixins = make(map[string]schema.Mixin)
	}
	s.Mixins[mixinName] = mixin
	if err := h.save(r, name, s); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mixinResponse{
		Message: fmt.Sprintf("mixin '%s' saved in schema '%s'", mixinName, name),
		Mixin:   codec.MixinToMap(mixin),
	})
}

func (h *Handler) deleteMixin(w http.ResponseWriter, r *http.Request) {
	name, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mixinName := r.PathValue("mixin")
	if _, ok := s.Mixins[mixinName]; !ok {
		h.writeError(w, r, notFound(fmt.Errorf("mixin '%s' not found in schema '%s'", mixinName, name)))
		return
	}

	delete(s.Mixins, mixinName)
	s.RootMixins = slices.DeleteFunc(s.RootMixins, func(root string) bool { return root == mixinName })
	if err := h.save(r, name, s); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("mixin '%s' deleted from schema '%s'", mixinName, name),
	})
}

func (h *Handler) addRoot(w http.ResponseWriter, r *http.Request) {
	name, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mixinName := r.PathValue("mixin")
	if _, ok := s.Mixins[mixinName]; !ok {
		h.writeError(w, r, badRequest(fmt.Errorf("mixin '%s' does not exist in schema", mixinName)))
		return
	}

	if !slices.Contains(s.RootMixins, mixinName) {
		s.RootMixins = append(s.RootMixins, mixinName)
		if err := h.save(r, name, s); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, rootListResponse{
		Message:    fmt.Sprintf("'%s' added to root_mixins", mixinName),
		RootMixins: nonNil(s.RootMixins),
	})
}

func (h *Handler) removeRoot(w http.ResponseWriter, r *http.Request) {
	name, s, err := h.load(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mixinName := r.PathValue("mixin")
	if !slices.Contains(s.RootMixins, mixinName) {
		h.writeError(w, r, notFound(fmt.Errorf("'%s' is not a root mixin", mixinName)))
		return
	}

	s.RootMixins = slices.DeleteFunc(s.RootMixins, func(root string) bool { return root == mixinName })
	if err := h.save(r, name, s); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rootListResponse{
		Message:    fmt.Sprintf("'%s' removed from root_mixins", mixinName),
		RootMixins: nonNil(s.RootMixins),
	})
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	force := strings.EqualFold(r.URL.Query().Get("force"), "true")

	written, err := store.Import(r.Context(), h.store, h.opts.Samples, force)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	skipped := make([]string, 0, len(h.opts.Samples))
	for name := range h.opts.Samples {
		if !slices.Contains(written, name) {
			skipped = append(skipped, name)
		}
	}
	sort.Strings(skipped)

	writeJSON(w, http.StatusOK, seedResponse{
		Message: "seeding complete",
		Seeded:  nonNil(written),
		Skipped: skipped,
	})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
