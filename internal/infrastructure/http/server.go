package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	config     *config.ServerConfig
	api        *handler.ProductHandler
	ui         *web.Handler
	meter      metric.MeterProvider
	registry   *prometheus.Registry
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.ServerConfig,
	api *handler.ProductHandler,
	ui *web.Handler,
	meterProvider metric.MeterProvider,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		api:      api,
		ui:       ui,
		meter:    meterProvider,
		registry: registry,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: s.Handler(),
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.HTTPRouteContext())

	meter := s.meter.Meter("catalog-api")
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	if s.config.DurationMillis {
		s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
	}
}

// setupRoutes configures the API, UI and operational routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/products", s.api.Routes)
		r.Get("/status", s.api.Status)
	})

	s.ui.Routes(s.router)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.registry != nil {
		s.router.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)
	}
}

// Handler returns the router wrapped with otelhttp for HTTP metrics and tracing
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithMeterProvider(s.meter),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
