package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the public routes. The call routes go through guard and then
// limiter; /health and /metrics go through neither.
func NewRouter(calls *CallHandler, guard, limiter func(http.Handler) http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLogMiddleware(logger))
	r.Use(PrometheusMetricsMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "Call dispatch service is healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(callRouter chi.Router) {
		callRouter.Use(guard)
		callRouter.Use(limiter)
		calls.RegisterRoutes(callRouter)
	})

	return r
}
