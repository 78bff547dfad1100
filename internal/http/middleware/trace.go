package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/medsupply/pkg/correlationid"
)

// HeaderUserID carries the id of the authenticated caller, set by the mediator.
const HeaderUserID = "X-User-ID"

// Trace starts a server span per request, continuing the trace propagated by
// the caller. The span is named after the matched chi route once the handler
// has run.
func Trace(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untraced(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method, trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				))
			defer span.End()

			if id, ok := correlationid.FromContext(ctx); ok {
				span.SetAttributes(attribute.String("medsupply.correlation_id", id))
			}
			if user := r.Header.Get(HeaderUserID); user != "" {
				span.SetAttributes(attribute.String("medsupply.user_id", user))
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := "<unknown>"
			if rc := chi.RouteContext(ctx); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			span.SetName(r.Method + " " + route)

			status := ww.Status()
			span.SetAttributes(semconv.HTTPRoute(route), semconv.HTTPResponseStatusCode(status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
			}
		})
	}
}

var untracedPaths = map[string]struct{}{
	MetricsPath:         {},
	"/docs":             {},
	"/docs/openapi.yml": {},
	"/health":           {},
	"/health/ready":     {},
}

// untraced reports probe and docs paths, including the per-entity
// /{entity}/health probes.
func untraced(path string) bool {
	if _, ok := untracedPaths[path]; ok {
		return true
	}
	return strings.HasSuffix(path, "/health")
}
