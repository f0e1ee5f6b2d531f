package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/dating-onboarding/internal/http/health"
	"github.com/janisto/dating-onboarding/internal/http/v1/onboarding"
	"github.com/janisto/dating-onboarding/internal/http/v1/routes"
	"github.com/janisto/dating-onboarding/internal/platform/config"
	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
	appmiddleware "github.com/janisto/dating-onboarding/internal/platform/middleware"
	"github.com/janisto/dating-onboarding/internal/platform/respond"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

// sweepInterval is how often idle onboarding sessions are dropped.
const sweepInterval = time.Minute

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(context.Background(), "invalid configuration", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, closeDeps, err := buildDeps(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "dependency setup failed", err)
	}
	defer closeDeps()

	if cfg.SessionIdleTTL > 0 {
		go d.routes.Manager.Run(ctx, sweepInterval)
	}

	srv := newServer(cfg.Port, newRouter(d))

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		closeDeps()
		os.Exit(1)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadTimeout:       30 * time.Second, // photo uploads
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

func newRouter(d *deps) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security("/api-docs"),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address and
		// dodge the chat token rate limit.
		chimiddleware.RealIP,
		// RequestSize limits request body size to prevent memory exhaustion from large payloads.
		chimiddleware.RequestSize(onboarding.MaxPhotoBytes),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	router.Get("/health", health.NewHandler(d.health))
	router.Handle("/metrics", metrics.Handler())
	if d.photos != nil {
		router.Handle(devPhotoPath+"/*", http.StripPrefix(devPhotoPath, d.photos))
	}

	cfg := huma.DefaultConfig("Dating Onboarding API", Version)
	cfg.DocsPath = "/api-docs"
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Firebase ID token",
		},
	}
	// Allow JSON fallback for wildcard Accept headers (e.g., */*) since Huma's
	// negotiation uses exact matching and doesn't interpret wildcards per
	// RFC 9110 section 12.5.1. Clients sending unsupported types like text/plain
	// will still receive JSON rather than 406, which is acceptable per RFC 9110
	// section 12.4.1 (servers MAY disregard Accept and return a default).
	api := humachi.New(router, cfg)

	// Add CBOR content type to OpenAPI requests and responses
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)

	routes.Register(api, d.routes)
	return router
}

func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}
