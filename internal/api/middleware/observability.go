package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/portoseguro/backend/internal/infrastructure/observability"
)

// RouteResolver maps a request to its registered pattern. *http.ServeMux
// satisfies it.
type RouteResolver interface {
	Handler(r *http.Request) (http.Handler, string)
}

// routeOf names spans and metrics by pattern ("GET /api/catalog/items/{name}")
// so item names never become label values. Unmatched requests share one label.
func routeOf(routes RouteResolver, r *http.Request) string {
	if routes == nil {
		return r.Method + " " + r.URL.Path
	}
	if _, pattern := routes.Handler(r); pattern != "" {
		return pattern
	}
	return "unmatched"
}

// ObservabilityMiddleware traces each request and records request metrics.
// A nil metrics only traces.
func ObservabilityMiddleware(metrics *observability.Metrics, routes RouteResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeOf(routes, r)

			ctx, span := observability.StartSpan(r.Context(), route)
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
			if rw.statusCode >= http.StatusInternalServerError {
				observability.RecordError(span, errServerStatus(rw.statusCode))
			}
			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}

type errServerStatus int

func (e errServerStatus) Error() string {
	return http.StatusText(int(e))
}

// responseWriter captures the status code written by the handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
