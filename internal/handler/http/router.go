// Package http implements the inventory service's chi-based HTTP surface.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/inventory-es/internal/command"
	"github.com/utafrali/inventory-es/internal/query"
	"github.com/utafrali/inventory-es/pkg/health"
	"github.com/utafrali/inventory-es/pkg/middleware"
)

// NewRouter creates a chi router with every inventory route registered.
func NewRouter(
	commands *command.Handlers,
	queries *query.Handlers,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofAllowedCIDRs []string,
	defaultReservationTTLMinutes int,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("inventory"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("inventory"))

	r.Get("/health", healthHandler.ReadinessHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, pprofAllowedCIDRs, logger)

	inventoryHandler := NewInventoryHandler(commands, queries, logger, defaultReservationTTLMinutes)

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/stock", inventoryHandler.AddStock)
		r.Post("/reserve", inventoryHandler.Reserve)
		r.Post("/commit", inventoryHandler.Commit)
		r.Post("/release", inventoryHandler.Release)
		r.Post("/availability", inventoryHandler.CheckAvailability)
		r.Get("/products/{productId}/stores/{storeId}", inventoryHandler.GetStock)
		r.Get("/products/{productId}", inventoryHandler.GetProductInventory)
	})

	return r
}
