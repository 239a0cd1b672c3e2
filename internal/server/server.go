package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/vk93102/clm-backend/internal/api/ws"
	"github.com/vk93102/clm-backend/internal/auth"
	"github.com/vk93102/clm-backend/internal/config"
	"github.com/vk93102/clm-backend/internal/server/middleware"
	"github.com/vk93102/clm-backend/internal/sla"
	"github.com/vk93102/clm-backend/internal/store/postgres"
	redisstore "github.com/vk93102/clm-backend/internal/store/redis"
	"github.com/vk93102/clm-backend/internal/workflow"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	auth       *auth.Service
	engine     *workflow.Engine
	monitor    *sla.Monitor
	pubsub     *redisstore.PubSub
	wsHub      *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the lifetime of
// the rate limiter cleanup goroutines.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub, authSvc *auth.Service, engine *workflow.Engine, monitor *sla.Monitor) *Server {
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

	hub := ws.NewHub(pubsub)

	s := &Server{
		router:  router,
		store:   store,
		auth:    authSvc,
		engine:  engine,
		monitor: monitor,
		pubsub:  pubsub,
		wsHub:   hub,
		cfg:     cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Unauthenticated group for auth endpoints.
	// 2. Authenticated group for operational endpoints.
	// 3. Admin-only group for configuration endpoints.
	router.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated auth routes (register, login, refresh).
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, 5, 10))

			authConfig := huma.DefaultConfig("CLM Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			authAPI := humachi.New(r, authConfig)
			registerAuthRoutes(authAPI, authSvc)
		})

		// Authenticated operational routes (workflows, approvals, audit).
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RequireTenant())
			r.Use(middleware.RateLimit(ctx, 100, 200))

			apiConfig := huma.DefaultConfig("CLM API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, engine, monitor)
		})

		// Admin-only configuration routes (definitions, SLA rules).
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RequireTenant())
			r.Use(middleware.RequireAdmin())
			r.Use(middleware.RateLimit(ctx, 100, 200))

			adminConfig := huma.DefaultConfig("CLM Admin API", "1.0.0")
			adminConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			adminAPI := humachi.New(r, adminConfig)
			registerAdminRoutes(adminAPI, store)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.RequireTenant())
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

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
