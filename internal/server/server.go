package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/api/ws"
	"github.com/gosuda/brandhub/internal/auth"
	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/config"
	"github.com/gosuda/brandhub/internal/integration"
	"github.com/gosuda/brandhub/internal/server/middleware"
	"github.com/gosuda/brandhub/internal/store/postgres"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	auth       *auth.Service
	sessions   *brand.Manager
	status     *integration.StatusCache
	wsHub      *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired.
// webAssets may be nil; when provided, the SPA dashboard is served on all
// unmatched routes (embedded via go:embed for single-binary distribution).
func New(cfg *config.Config, store *postgres.Store, authSvc *auth.Service, sessions *brand.Manager, status *integration.StatusCache, webAssets fs.FS) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(sessions)

	s := &Server{
		router:   router,
		store:    store,
		auth:     authSvc,
		sessions: sessions,
		status:   status,
		wsHub:    hub,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Unauthenticated group for auth endpoints.
	// 2. Authenticated group for brand management.
	// 3. Authenticated group that also requires a resolved active brand.
	router.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated auth routes (register, login, refresh).
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(context.Background(), 5, 10))

			authConfig := huma.DefaultConfig("BrandHub Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			authAPI := humachi.New(r, authConfig)
			registerAuthRoutes(authAPI, authSvc, sessions)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RateLimit(context.Background(), 100, 200))

			apiConfig := huma.DefaultConfig("BrandHub API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerBrandRoutes(api, store, sessions)

			// Routes below also need an active brand resolved for the user.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActiveBrand(sessions))

				scopedConfig := huma.DefaultConfig("BrandHub Brand-Scoped API", "1.0.0")
				scopedConfig.Servers = []*huma.Server{
					{URL: "/api/v1"},
				}
				scopedAPI := humachi.New(r, scopedConfig)
				registerBrandScopedRoutes(scopedAPI, status)
			})
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Serve the embedded SPA on all unmatched routes.
	// This must be the last route registered so API/WS routes take priority.
	if webAssets != nil {
		router.NotFound(spaFileServer(webAssets).ServeHTTP)
		log.Info().Msg("embedded dashboard enabled")
	}

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
