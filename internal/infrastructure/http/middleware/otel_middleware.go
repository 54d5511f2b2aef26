package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/catalog-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RoutePattern returns the matched chi route pattern, or the raw path when
// routing has not resolved one yet.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// ActiveRequestsMiddleware tracks in-flight HTTP requests per route
func ActiveRequestsMiddleware(meter metric.Meter) func(next http.Handler) http.Handler {
	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passThrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &routeAwareWriter{
				ResponseWriter: w,
				request:        r,
				activeRequests: activeRequests,
			}

			next.ServeHTTP(wrapper, r)

			// decrement even if Write/WriteHeader were never called
			wrapper.ensureDecrement()
		})
	}
}

// routeAwareWriter increments the gauge once the route is known, which is
// when the handler starts writing, and decrements with the same attributes.
type routeAwareWriter struct {
	http.ResponseWriter
	request        *http.Request
	activeRequests metric.Int64UpDownCounter
	attrs          []attribute.KeyValue
	decrementDone  bool
}

func (w *routeAwareWriter) WriteHeader(statusCode int) {
	w.incrementIfNeeded()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *routeAwareWriter) Write(b []byte) (int, error) {
	w.incrementIfNeeded()
	return w.ResponseWriter.Write(b)
}

func (w *routeAwareWriter) incrementIfNeeded() {
	if w.attrs != nil {
		return
	}
	w.attrs = []attribute.KeyValue{
		attribute.String("http.request.method", w.request.Method),
		attribute.String("http.route", RoutePattern(w.request)),
		attribute.String("server.address", w.request.Host),
	}
	w.activeRequests.Add(w.request.Context(), 1, metric.WithAttributes(w.attrs...))
}

func (w *routeAwareWriter) ensureDecrement() {
	if w.decrementDone {
		return
	}
	w.decrementDone = true
	w.incrementIfNeeded()
	w.activeRequests.Add(w.request.Context(), -1, metric.WithAttributes(w.attrs...))
}

// DurationMillisecondsMiddleware records request duration in milliseconds,
// next to the seconds-based histogram otelhttp already emits.
func DurationMillisecondsMiddleware(meter metric.Meter) func(next http.Handler) http.Handler {
	durationHistogram, err := meter.Float64Histogram(
		"http.server.request.duration.ms",
		metric.WithDescription("HTTP server request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return passThrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			durationHistogram.Record(r.Context(), float64(time.Since(start).Milliseconds()),
				metric.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("http.route", RoutePattern(r)),
					attribute.Int("http.response.status_code", status(ww)),
					attribute.String("server.address", r.Host),
				),
			)
		})
	}
}

// HTTPRouteContext adds the route pattern to the request context so every
// log record written while handling the request carries http.route.
// Under router.Use the pattern is not matched yet, so it is resolved from
// the shared chi route context when a record is written.
func HTTPRouteContext() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := telemetry.WithHTTPRouteFunc(r.Context(), func() string {
				return RoutePattern(r)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger logs one JSON record per request
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			code := status(ww)

			attrs := []any{
				slog.String("http.request.method", r.Method),
				slog.String("http.route", RoutePattern(r)),
				slog.String("url.path", r.URL.Path),
				slog.String("url.query", r.URL.RawQuery),
				slog.Int("http.response.status_code", code),
				slog.Int("http.response.body.size", ww.BytesWritten()),
				slog.String("duration", duration.String()),
				slog.Float64("duration_ms", float64(duration.Milliseconds())),
				slog.String("client.address", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("request_id", reqID))
			}
			if spanCtx := trace.SpanFromContext(r.Context()).SpanContext(); spanCtx.IsValid() {
				attrs = append(attrs,
					slog.String("trace_id", spanCtx.TraceID().String()),
					slog.String("span_id", spanCtx.SpanID().String()),
				)
			}

			level := slog.LevelInfo
			if code >= 500 {
				level = slog.LevelError
			} else if code >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "HTTP request completed", attrs...)
		})
	}
}

// status treats a handler that never wrote a header as 200
func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

func passThrough(next http.Handler) http.Handler {
	return next
}
