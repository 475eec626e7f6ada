package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/registra/registra/internal/middleware"
)

// RouterConfig collects the handlers and middleware settings the router
// mounts.
type RouterConfig struct {
	Logger *slog.Logger

	Base       *Handler
	Health     *HealthHandler
	Metrics    *MetricsHandler
	Status     *StatusHandler
	Migrations *MigrationHandler
	Users      *UserHandler

	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig
	// MaxBodyBytes caps request bodies; zero disables the cap.
	MaxBodyBytes int64
}

// NewRouter builds the chi router serving the public API under /api/v1
// plus the probe and metrics endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(cfg.Base.NotFound)
	r.MethodNotAllowed(cfg.Base.MethodNotAllowed)

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Metrics.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", cfg.Status.Get)

		r.Get("/migrations", cfg.Migrations.List)
		r.Post("/migrations", cfg.Migrations.Apply)

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.RateLimitSignup(cfg.RateLimit)).Post("/", cfg.Users.Create)
			r.Get("/{username}", cfg.Users.Get)
			r.Patch("/{username}", cfg.Users.Update)
		})
	})

	return r
}
