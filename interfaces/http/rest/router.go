// Package rest wires the chi router, middleware, and handlers.
package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"memory-backend/application/services"
	"memory-backend/interfaces/http/rest/handlers"
	"memory-backend/interfaces/http/rest/middleware"
	"memory-backend/pkg/auth"
)

// Options control which routes and middleware the router mounts.
type Options struct {
	// AuthEnabled mounts all routes behind the auth gate. When false only
	// the collection GET and POST are exposed, unscoped.
	AuthEnabled bool
	EnableCORS  bool
	// ReadyCheck backs the readiness endpoint; nil means always ready.
	ReadyCheck func(context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	service  *services.MemoryService
	verifier auth.TokenVerifier
	opts     Options
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(service *services.MemoryService, verifier auth.TokenVerifier, opts Options, logger *zap.Logger) *Router {
	return &Router{
		service:  service,
		verifier: verifier,
		opts:     opts,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	memoryHandler := handlers.NewMemoryHandler(rt.service, rt.logger)

	router.Route("/api/v1/memories", func(r chi.Router) {
		if rt.opts.AuthEnabled {
			r.Use(middleware.Authenticate(rt.verifier, rt.logger))
			r.Get("/", memoryHandler.Search)
			r.Post("/", memoryHandler.Create)
			r.Get("/{memoryID}", memoryHandler.GetByID)
			r.Put("/{memoryID}", memoryHandler.Update)
			r.Delete("/{memoryID}", memoryHandler.Delete)
			return
		}

		// Unauthenticated deployment: list/search and create only.
		r.Get("/", memoryHandler.Search)
		r.Post("/", memoryHandler.Create)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports whether the database is reachable
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.opts.ReadyCheck != nil {
		if err := rt.opts.ReadyCheck(req.Context()); err != nil {
			rt.logger.Error("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
