// Command usersvc is a small user CRUD service assembled with routegate.
// The embedded manifests tree is the route table; controllers carry the
// auth policy and handlers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/routegate/routegate"
	"github.com/routegate/routegate/discover"
	"github.com/routegate/routegate/internal/config"
	"github.com/routegate/routegate/internal/controllers"
	"github.com/routegate/routegate/internal/logger"
	"github.com/routegate/routegate/internal/store"
	"github.com/routegate/routegate/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, traced := telemetry.SetupTracing(ctx, cfg.ServiceName)
	if traced {
		log.Info().Msg("otel tracing enabled")
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Warn().Err(err).Msg("tracing shutdown")
			}
		}()
	}

	st, err := store.Connect(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	routes, err := discover.Routes(controllers.Manifests(), cfg.ControllerDir, controllers.Bindings(st))
	if err != nil {
		return err
	}

	opts := routegate.Options{
		JWTS:       cfg.JWTS,
		Scope:      cfg.DefaultScope,
		Logger:     &log.Logger,
		Middleware: []gin.HandlerFunc{telemetry.Metrics()},
	}
	if traced {
		opts.Tracing = otelgin.Middleware(cfg.ServiceName)
	}
	if origins := trimmedOrigins(cfg.CORSOrigins); len(origins) > 0 {
		opts.CORS = &cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Personate-Sub"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
	}

	router, err := routegate.Build(ctx, opts, routes)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 300*time.Millisecond)
		defer cancel()
		if err := st.Ping(pingCtx); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/", router)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// trimmedOrigins drops blanks and surrounding whitespace from the
// configured origin list.
func trimmedOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, origin := range raw {
		if s := strings.TrimSpace(origin); s != "" {
			origins = append(origins, s)
		}
	}
	return origins
}
