package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLogger_AddsTraceAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &config.OTLPConfig{ServiceName: "catalog-api", Environment: "test"}, slog.LevelInfo)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	ctx = WithHTTPRoute(ctx, "/api/products/{id}")

	logger.InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "catalog-api", record["service.name"])
	assert.Equal(t, "/api/products/{id}", record["http.route"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &config.OTLPConfig{}, slog.LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestHTTPRouteFromContext_Empty(t *testing.T) {
	assert.Empty(t, HTTPRouteFromContext(context.Background()))
}

func TestHTTPRouteFromContext_CallsResolverOnRead(t *testing.T) {
	route := "/products/3"
	ctx := WithHTTPRouteFunc(context.Background(), func() string { return route })

	route = "/products/{id}"
	assert.Equal(t, "/products/{id}", HTTPRouteFromContext(ctx))
	assert.Empty(t, HTTPRouteFromContext(context.Background()))
}
