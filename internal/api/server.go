// Package api provides the HTTP API server and handlers for the UniqueFilms application.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/ratelimit"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// Options configures the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
	// BlobRoot is served under /blobs/ when photos are stored locally.
	BlobRoot string
	// LoginAttemptsPerMinute bounds signup and login attempts per client IP.
	LoginAttemptsPerMinute int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *docstore.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	sseManager      *sse.Manager
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *docstore.Store, services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.LoginAttemptsPerMinute <= 0 {
		opts.LoginAttemptsPerMinute = 10
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(metricsMiddleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("UniqueFilms API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           store,
		services:        services,
		router:          router,
		api:             api,
		sseManager:      sseManager,
		authRateLimiter: ratelimit.PerMinute(opts.LoginAttemptsPerMinute),
		logger:          logger,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerFavoritesRoutes()
	s.registerDiscoveryRoutes()
	s.registerReviewRoutes()
	s.registerPhotoRoutes()
	s.registerStreamRoutes()

	router.Handle("/metrics", promhttp.Handler())
	if opts.BlobRoot != "" {
		router.Handle("/blobs/*", http.StripPrefix("/blobs/", blobFileServer(opts.BlobRoot)))
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Shutdown stops the login rate limiter's sweeper.
func (s *Server) Shutdown(context.Context) error {
	s.authRateLimiter.Stop()
	return nil
}

// registerStreamRoutes mounts the SSE endpoints directly on the router;
// huma does not model long-lived streams.
func (s *Server) registerStreamRoutes() {
	resolve := func(r *http.Request) (string, bool) {
		userID := getUserID(r.Context())
		return userID, userID != ""
	}

	if s.sseManager != nil {
		s.router.Handle("/api/v1/events", sse.NewHandler(s.sseManager, resolve, s.logger))
	}
	if s.services.Archive != nil {
		s.router.Handle("/api/v1/archive/stream", sse.NewArchiveHandler(s.services.Archive, resolve, s.logger))
	}
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
