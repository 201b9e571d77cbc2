// Package middleware provides observability middleware for router dispatch.
//
// This package includes:
//   - OpenTelemetry tracing of each dispatch
//   - Prometheus metrics labelled by route pattern
//
// # OpenTelemetry Middleware
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithFilter(func(ctx context.Context, props router.Props) bool {
//	        return props.Location.Pathname != "/healthz"
//	    }),
//	))
//
// Handlers receive the span's context; use SpanFromContext to annotate it.
//
// # Prometheus Metrics
//
//	r.Use(middleware.Prometheus(middleware.WithNamespace("myapp")))
//	http.Handle("/metrics", promhttp.Handler())
//
// Register metrics middleware after router.Boundary so redirects are
// counted before the boundary consumes them.
package middleware
