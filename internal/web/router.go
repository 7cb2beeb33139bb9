package web

import (
	"net/http"
	"sort"
	"strings"
)

type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Router dispatches on ServeMux patterns, which may carry wildcards such as
// /api/v1/cases/{case_id}, and then on method. Unmatched paths get a JSON 404.
type Router struct {
	mux    *http.ServeMux
	routes []Route
	byPath map[string]map[string]http.HandlerFunc
}

func NewRouter() *Router {
	rt := &Router{
		mux:    http.NewServeMux(),
		byPath: make(map[string]map[string]http.HandlerFunc),
	}
	rt.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		FailErr(w, r, ErrNotFound)
	})
	return rt
}

func (rt *Router) Handle(method, path string, handler http.HandlerFunc) {
	rt.routes = append(rt.routes, Route{Method: method, Path: path, Handler: handler})

	methods, exists := rt.byPath[path]
	if !exists {
		methods = make(map[string]http.HandlerFunc)
		rt.byPath[path] = methods
		rt.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if h, ok := methods[r.Method]; ok {
				h(w, r)
				return
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("Allow", allowed(methods))
			FailErr(w, r, ErrMethodNotAllowed)
		})
	}
	methods[method] = handler
}

func allowed(methods map[string]http.HandlerFunc) string {
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, m)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (rt *Router) GET(path string, handler http.HandlerFunc) {
	rt.Handle(http.MethodGet, path, handler)
}
func (rt *Router) POST(path string, handler http.HandlerFunc) {
	rt.Handle(http.MethodPost, path, handler)
}
func (rt *Router) PUT(path string, handler http.HandlerFunc) {
	rt.Handle(http.MethodPut, path, handler)
}
func (rt *Router) DELETE(path string, handler http.HandlerFunc) {
	rt.Handle(http.MethodDelete, path, handler)
}

// Routes lists registered routes sorted by path, then method.
func (rt *Router) Routes() []Route {
	out := make([]Route, len(rt.routes))
	copy(out, rt.routes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Pattern returns the registered pattern r dispatches to, or "" when only the
// not-found fallback matches.
func (rt *Router) Pattern(r *http.Request) string {
	_, pattern := rt.mux.Handler(r)
	if pattern == "/" {
		return ""
	}
	return pattern
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}
