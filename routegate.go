package routegate

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/routegate/routegate/apperr"
	"github.com/routegate/routegate/auth"
)

// Options configures router assembly.
type Options struct {
	// JWTS is the JSON Web Key Set source used to verify bearer tokens:
	// a URL when the value starts with "http", otherwise an inline JWKS
	// JSON document. Required as soon as one route is private.
	JWTS string

	// Scope is the default scope required on private routes whose
	// controller does not declare one. Empty means no scope check.
	Scope string

	// Logger receives assembly, request, and response records. Nil
	// disables logging.
	Logger *zerolog.Logger

	// Tracing is an opaque middleware installed once, globally, before
	// everything else. Typically otelgin.Middleware.
	Tracing gin.HandlerFunc

	// Middleware is installed globally after Tracing, e.g. a metrics
	// collector.
	Middleware []gin.HandlerFunc

	// CORS overrides the permissive default cross-origin policy.
	CORS *cors.Config
}

// Router is the assembled handler. It is safe for concurrent use; the
// route table is immutable after Build returns.
type Router struct {
	engine *gin.Engine
	routes []Descriptor
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// Routes returns the resolved descriptors in registration order.
func (r *Router) Routes() []Descriptor {
	out := make([]Descriptor, len(r.routes))
	copy(out, r.routes)
	return out
}

// Build resolves every registered module path and assembles the router.
// Any configuration problem fails the whole build: an unsupported method
// segment, a duplicate (method, path) pair, or a private route without a
// JWKS source. ctx bounds the background refresh of a remote key set.
func Build(ctx context.Context, opts Options, routes []Route) (*Router, error) {
	log := opts.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	var authenticator *auth.Authenticator
	if opts.JWTS != "" {
		an, err := auth.New(ctx, opts.JWTS)
		if err != nil {
			return nil, err
		}
		authenticator = an
	}

	engine := gin.New()
	if opts.Tracing != nil {
		engine.Use(opts.Tracing)
	}
	engine.Use(requestID())
	engine.Use(opts.Middleware...)
	// Post-Next logic runs in reverse registration order, so this reads
	// backwards on the way out: recovery feeds the translator, the
	// translator writes the response, the logger records it.
	engine.Use(responseLogger(log))
	engine.Use(errorTranslator(log))
	engine.Use(recovery(log))
	engine.Use(cors.New(corsConfig(opts)))

	r := &Router{engine: engine}
	seen := make(map[string]string, len(routes))
	for _, route := range routes {
		desc, err := resolveRoute(route.Module, route.Controller, opts.Scope)
		if err != nil {
			return nil, err
		}
		key := desc.Method + " " + desc.Path
		if prev, dup := seen[key]; dup {
			return nil, apperr.Config("modules %q and %q both resolve to %s %s", prev, route.Module, desc.Method, desc.Path)
		}
		seen[key] = route.Module

		if !desc.Public && authenticator == nil {
			return nil, apperr.Config("private route %s %s (module %q) requires a jwts source", desc.Method, desc.Path, route.Module)
		}

		handlers := []gin.HandlerFunc{bodyCapture(), requestLogger(log)}
		if !desc.Public {
			handlers = append(handlers, authGuard(authenticator, desc.Scope, log))
		}
		handlers = append(handlers, dispatch(route.Controller))

		if err := r.register(desc, handlers); err != nil {
			return nil, err
		}
		r.routes = append(r.routes, desc)

		log.Info().
			Str("method", desc.Method).
			Str("path", desc.Path).
			Str("module", desc.Module).
			Bool("public", desc.Public).
			Str("scope", desc.Scope).
			Msg("route registered")
	}

	return r, nil
}

// register guards against gin's panics on conflicting path patterns so
// they surface as configuration errors like every other assembly failure.
func (r *Router) register(desc Descriptor, handlers []gin.HandlerFunc) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = apperr.Config("register %s %s: %v", desc.Method, desc.Path, v)
		}
	}()
	r.engine.Handle(desc.Method, desc.Path, handlers...)
	return nil
}

func corsConfig(opts Options) cors.Config {
	if opts.CORS != nil {
		return *opts.CORS
	}
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Personate-Sub"},
		ExposeHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}
}
