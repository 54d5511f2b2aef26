package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

const serviceVersion = "1.0.0"

// Telemetry holds all OpenTelemetry components
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Registry       *prometheus.Registry
	Logger         *slog.Logger

	conn *grpc.ClientConn
}

// New returns exporting telemetry when OTLP is enabled and no-op telemetry otherwise
func New(cfg *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	if !cfg.Enabled {
		return NewNoOpTelemetry(cfg, logCfg)
	}
	return NewTelemetry(cfg, logCfg)
}

// NewTelemetry initializes all OpenTelemetry components
func NewTelemetry(cfg *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	ctx := context.Background()

	// Initialize logger first for debugging
	logger := initLogger(cfg, logCfg)

	logger.Info("Initializing OpenTelemetry",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("service_name", cfg.ServiceName),
	)

	conn, err := dialCollector(cfg)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp, err := initTracerProvider(ctx, conn, res)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)
	logger.Info("Tracer provider initialized successfully")

	promReader, registry, err := newPrometheusReader()
	if err != nil {
		return nil, err
	}

	mp, err := initMeterProvider(ctx, conn, res, promReader)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	otel.SetMeterProvider(mp)
	logger.Info("Meter provider initialized successfully (OTLP + Prometheus exporters)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       registry,
		Logger:         logger,
		conn:           conn,
	}, nil
}

// NewNoOpTelemetry creates a telemetry instance that exports nothing over OTLP.
// Prometheus metrics are still collected.
func NewNoOpTelemetry(cfg *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	logger := initLogger(cfg, logCfg)

	promReader, registry, err := newPrometheusReader()
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider()
	mp := metric.NewMeterProvider(metric.WithReader(promReader))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("Telemetry initialized in no-op mode (OTLP export disabled)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       registry,
		Logger:         logger,
	}, nil
}

// Shutdown flushes and stops all telemetry components
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.Logger.Info("Shutting down OpenTelemetry")

	var errs []error
	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown tracer provider", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown meter provider", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	t.Logger.Info("OpenTelemetry shutdown successfully")
	return nil
}
