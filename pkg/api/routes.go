package api

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes mounts h on mux under its base path and returns the
// registered pattern.
func RegisterRoutes(mux Mux, h *Handler) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("api: missing mux")
	}
	if h == nil {
		return "", fmt.Errorf("api: missing handler")
	}
	pattern := mountPath(h.opts.BasePath, "/")
	mux.Handle(pattern, h)
	return pattern, nil
}

func (h *Handler) routes() {
	base := strings.TrimRight(mountPath(h.opts.BasePath, ""), "/")

	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET "+base+"/list", h.list)
	h.mux.HandleFunc("POST "+base+"/seed", h.seed)
	h.mux.HandleFunc("GET "+base+"/{name}", h.get)
	h.mux.HandleFunc("PUT "+base+"/{name}", h.put)
	h.mux.HandleFunc("DELETE "+base+"/{name}", h.remove)
	h.mux.HandleFunc("GET "+base+"/{name}/roots", h.roots)
	h.mux.HandleFunc("POST "+base+"/{name}/evaluate", h.evaluate)
	h.mux.HandleFunc("POST "+base+"/{name}/openapi", h.openapi)
	h.mux.HandleFunc("GET "+base+"/{name}/search", h.search)
	h.mux.HandleFunc("PUT "+base+"/{name}/mixin/{mixin}", h.putMixin)
	h.mux.HandleFunc("DELETE "+base+"/{name}/mixin/{mixin}", h.deleteMixin)
	h.mux.HandleFunc("PUT "+base+"/{name}/root/{mixin}", h.addRoot)
	h.mux.HandleFunc("DELETE "+base+"/{name}/root/{mixin}", h.removeRoot)
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath != "" && !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	if basePath == "" || basePath == "/" {
		if routePath == "" {
			return "/"
		}
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
