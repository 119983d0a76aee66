package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/grocify/pkg/health"
	"github.com/utafrali/grocify/pkg/middleware"

	"github.com/utafrali/grocify/internal/service"
)

// ServiceName labels metrics and spans emitted by the API.
const ServiceName = "grocify-api"

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	CORS       middleware.CORSConfig
	PprofCIDRs []string
	// RateLimit guards order creation and report generation.
	RateLimit middleware.RateLimitConfig
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	orderService *service.OrderService,
	reportService *service.ReportService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	orderHandler := NewOrderHandler(orderService, reportService, logger)

	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.With(middleware.RateLimit(cfg.RateLimit, logger)).Post("/", orderHandler.CreateOrder)
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		r.Put("/{id}", orderHandler.UpdateOrder)
		r.Delete("/{id}", orderHandler.DeleteOrder)
	})

	r.Get("/statistics", orderHandler.Statistics)
	// Each limited route keeps its own per-client buckets.
	r.With(middleware.RateLimit(cfg.RateLimit, logger)).Get("/generate-report", orderHandler.GenerateReport)

	return r
}
