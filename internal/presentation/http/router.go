package httppresentation

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerTenantID       = "X-Tenant-ID"
	tracerName           = "minishop.http"
)

// Router is a ServeMux whose routes all run through the same chain:
// Trace → ObservabilityMiddleware (request logger) → Access log → HTTP metrics → Handler.
type Router struct {
	mux      *http.ServeMux
	log      observability.Logger
	requests observability.Counter
	duration observability.Histogram
}

func NewRouter(tel observability.Observability) *Router {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Router{
		mux:      http.NewServeMux(),
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		requests: tel.Metrics().Counter(observability.MHTTPRequests),
		duration: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

// Handle registers h for a ServeMux pattern such as "GET /api/cart". The
// pattern is also the route label on spans, logs and metrics.
func (rt *Router) Handle(pattern string, h http.Handler) {
	wrapped := rt.withTrace(
		ObservabilityMiddleware(
			rt.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerTenantID) },
		)(
			rt.withAccessLog(
				rt.withHTTPMetrics(h),
			),
		),
	)
	rt.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	}))
}

func (rt *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	rt.Handle(pattern, h)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (rt *Router) withTrace(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName(r, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeTemplate(route, r)),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func spanName(r *http.Request, route string) string {
	if route == "unknown" {
		return r.Method + " " + r.URL.Path
	}
	if strings.Contains(route, " ") {
		return route
	}
	return r.Method + " " + route
}

func routeTemplate(route string, r *http.Request) string {
	if idx := strings.Index(route, " "); idx >= 0 {
		route = route[idx+1:]
	}
	if route == "unknown" || route == "" {
		return r.URL.Path
	}
	return route
}

type routeKey struct{}

type routeHolder struct{ template string }

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, &routeHolder{template: route})
}

// RefineRoute narrows the route label of a catch-all handler once it knows
// which fixed route serves the request. The span is renamed to match.
func RefineRoute(ctx context.Context, route string) {
	h, ok := ctx.Value(routeKey{}).(*routeHolder)
	if !ok || route == "" {
		return
	}
	h.template = route
	span := trace.SpanFromContext(ctx)
	span.SetName(route)
	span.SetAttributes(attribute.String("http.route", route))
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if h, ok := ctx.Value(routeKey{}).(*routeHolder); ok && h.template != "" {
		return h.template
	}
	return "unknown"
}

// CORS returns the cross-origin middleware. An empty origin list reflects any
// origin, which together with credentials is what a browser needs to send the
// session cookie through the gateway.
func CORS(origins []string, credentials bool) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User", headerRequestID, headerTenantID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: credentials,
		MaxAge:           300,
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
	} else {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	}
	return cors.Handler(opts)
}
