package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"comedyuo/showsync/internal/api"
	"comedyuo/showsync/internal/config"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/middleware"
)

// RegisterRoutes builds the HTTP handler. healthDB may be nil when no
// database handle is available for the health check.
func RegisterRoutes(cfg *config.Config, deps *api.Dependencies, healthDB *sqlx.DB, gatherer prometheus.Gatherer, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", api.IdempotencyKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(healthDB, upSince))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	h := api.NewShowHandlers(deps.Services.Shows)
	limiter := middleware.NewIPRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	adminOnly := middleware.AdminAuthMiddleware(cfg.AdminAuth.TokenSecret)

	r.Route("/shows", func(shows chi.Router) {
		shows.Use(limiter.Middleware)

		shows.Get("/", h.ListShows)
		shows.Get("/sync/status", h.SyncStatus)
		shows.Get("/{id}", h.GetShow)

		shows.Group(func(admin chi.Router) {
			admin.Use(adminOnly)

			admin.Post("/", h.CreateShow)
			admin.Post("/sync", h.SyncShows)
			admin.Put("/{id}", h.UpdateShow)
			admin.Patch("/{id}", h.UpdateShow)
			admin.Delete("/{id}", h.DeleteShow)
			admin.Post("/{id}/invite", h.InviteToShow)
		})
	})

	if cfg.AdminAuth.Enabled() {
		logging.Info("Router initialized, write routes require an admin token")
	} else {
		logging.Warn("Router initialized without ADMIN_TOKEN_SECRET, write routes are open")
	}

	return r
}
