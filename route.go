package routegate

import (
	"net/http"
	"strings"

	"github.com/routegate/routegate/apperr"
)

// methodNames maps the final module path segment to its HTTP method.
// Only these three are part of the convention.
var methodNames = map[string]string{
	"get":   http.MethodGet,
	"post":  http.MethodPost,
	"patch": http.MethodPatch,
}

// Descriptor is the resolved routing record for one module path. Built
// once during assembly, immutable afterwards.
type Descriptor struct {
	Method string
	Path   string
	Module string
	Public bool
	// Scope is the effective required scope, already defaulted.
	Scope string
}

// resolveRoute derives a Descriptor from a module path. The final segment,
// lowercased, must name a supported method; the remaining segments form
// the URL path with "{id}" parameters rewritten to gin's ":id" form.
func resolveRoute(module string, ctrl Controller, defaultScope string) (Descriptor, error) {
	if ctrl == nil {
		return Descriptor{}, apperr.Config("module %q has no controller", module)
	}
	trimmed := strings.Trim(module, "/")
	if trimmed == "" {
		return Descriptor{}, apperr.Config("module path is empty")
	}

	segments := strings.Split(trimmed, "/")
	last := strings.ToLower(segments[len(segments)-1])
	method, ok := methodNames[last]
	if !ok {
		return Descriptor{}, apperr.Config("module %q: %q is not a supported method (get, post, patch)", module, last)
	}

	parts := make([]string, 0, len(segments)-1)
	for _, seg := range segments[:len(segments)-1] {
		parts = append(parts, convertParam(seg))
	}
	path := "/" + strings.Join(parts, "/")

	scope := ctrl.Scope()
	if scope == "" {
		scope = defaultScope
	}

	return Descriptor{
		Method: method,
		Path:   path,
		Module: module,
		Public: ctrl.Public(),
		Scope:  scope,
	}, nil
}

// convertParam rewrites an OpenAPI-style "{id}" segment to gin's ":id".
func convertParam(segment string) string {
	if len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return ":" + segment[1:len(segment)-1]
	}
	return segment
}
