// Package routegate assembles a gin router from controllers registered
// under convention-over-configuration module paths. A module path like
// "users/{id}/get" names its route: the final segment is the HTTP method,
// the rest is the URL with OpenAPI-style parameters. Private controllers
// are gated by JWT bearer authentication against a configured JWKS source
// and a per-route scope check; all failures funnel through one error
// translator that owns the user-facing error shape.
package routegate

import (
	"context"

	"github.com/routegate/routegate/auth"
)

// Controller is one unit of business logic bound to one route. Metadata
// methods are consulted once at assembly time; Execute runs per request
// and returns the response payload or an error for the translator.
type Controller interface {
	// Public disables authentication for the route when true.
	Public() bool
	// Scope is the scope required to call the route; empty defers to
	// the assembler's default scope.
	Scope() string
	// SuccessStatus is the HTTP status written with the payload; zero
	// means 200.
	SuccessStatus() int
	// Execute handles one request. Returned errors are translated
	// centrally; controllers never write to the response themselves.
	Execute(ctx context.Context, inv *Invocation) (any, error)
}

// Invocation carries everything a controller may need from the request.
// It is built per request and discarded with the response.
type Invocation struct {
	// Data is the parsed JSON request body, nil when absent.
	Data any
	// Auth is the verified identity; nil on public routes.
	Auth *auth.Context
	// Params maps path parameter names to their values.
	Params map[string]string
	// RawBody is the unparsed request body, kept for use cases like
	// payload signature verification.
	RawBody []byte
	// Headers holds the request headers, first value per canonical key.
	Headers map[string]string
}

// Route registers a controller under its module path.
type Route struct {
	// Module is the convention path, e.g. "users/{id}/get".
	Module     string
	Controller Controller
}
