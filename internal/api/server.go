package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/Elhussin/opticsSass/internal/api/handler"
	mw "github.com/Elhussin/opticsSass/internal/api/middleware"
	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/registry"
	"github.com/Elhussin/opticsSass/internal/resolver"
	"github.com/Elhussin/opticsSass/internal/router"
)

// Server serves two surfaces from one listener: the administrative API
// under /admin/v1 behind API key auth, and the tenant storefront API
// under /api/v1 behind host-based tenant resolution.
type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	sharedPool     *pgxpool.Pool
	temporalClient temporalclient.Client
	redisClient    *redis.Client
	registry       *registry.Registry
	resolver       *resolver.Resolver
	storeRouter    *router.Router
}

func NewServer(logger zerolog.Logger, sharedPool *pgxpool.Pool, temporalClient temporalclient.Client, redisClient *redis.Client, reg *registry.Registry, res *resolver.Resolver, storeRouter *router.Router) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       core.NewServices(sharedPool, temporalClient),
		sharedPool:     sharedPool,
		temporalClient: temporalClient,
		redisClient:    redisClient,
		registry:       reg,
		resolver:       res,
		storeRouter:    storeRouter,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// Administrative surface, reached on any host.
	s.router.Route("/admin/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.sharedPool))

		tenant := handler.NewTenant(s.services.Tenant, s.services.Provisioner, s.registry)
		r.Get("/tenants", tenant.List)
		r.Post("/tenants", tenant.Provision)
		r.Get("/tenants/{id}", tenant.Get)
		r.Put("/tenants/{id}/subscription", tenant.UpdateSubscription)
		r.Post("/tenants/{id}/suspend", tenant.Suspend)
		r.Post("/tenants/{id}/unsuspend", tenant.Unsuspend)

		store := handler.NewStore(s.services.StoreCatalog, s.services.Provisioner)
		r.Get("/stores", store.List)
		r.Get("/stores/{id}", store.Get)
		r.Post("/stores/{id}/retry", store.Retry)

		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})

	// Tenant storefront surface, reached on tenant subdomains only.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.ResolveTenant(s.resolver))

		storefront := handler.NewStorefront(s.services.Tenant, s.storeRouter)
		r.Get("/store", storefront.Current)
		r.Get("/store/ping", storefront.Ping)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.sharedPool.Ping(ctx); err != nil {
		checks["shared_db"] = err.Error()
		healthy = false
	} else {
		checks["shared_db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	// A dead cache degrades lookups but does not break them, so redis
	// is reported without failing readiness.
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
	} else {
		checks["redis"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
