package middleware

import (
	"context"

	"github.com/vango-dev/wayfinder/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for wayfinder dispatch spans.
const defaultTracerName = "wayfinder"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "wayfinder").
	TracerName string

	// IncludeParams adds every match param as a wayfinder.param.<name>
	// attribute. Params may carry user data, so this is off by default.
	IncludeParams bool

	// Filter determines which dispatches to trace.
	// If nil, all dispatches are traced.
	Filter func(ctx context.Context, props router.Props) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ctx context.Context, props router.Props) []attribute.KeyValue

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeParams enables param attributes.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeParams = include
	}
}

// WithFilter sets a filter function for dispatches.
func WithFilter(filter func(ctx context.Context, props router.Props) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, props router.Props) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracer sets the tracer directly.
func WithTracer(tracer trace.Tracer) OTelOption {
	return func(c *OTelConfig) {
		c.Tracer = tracer
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that wraps every dispatch in a span.
//
// The span is named after the route pattern ("wayfinder /users/:id") and
// carries the pathname, pattern and matched URI. The handler receives the
// span's context, so spans it starts (including coordinator navigations)
// become children. A returned redirect is recorded as an attribute, not as
// an error.
//
// The tracer comes from the global provider unless WithTracer is given:
//
//	otel.SetTracerProvider(tp)
//	r.Use(middleware.OpenTelemetry())
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}

	return router.MiddlewareFunc(func(ctx context.Context, props router.Props, next router.Next) (any, error) {
		if config.Filter != nil && !config.Filter(ctx, props) {
			return next(ctx)
		}

		route := routeLabel(props)
		attrs := []attribute.KeyValue{
			attribute.String("wayfinder.path", props.Location.Pathname),
			attribute.String("wayfinder.route", route),
			attribute.String("wayfinder.uri", props.URI),
		}
		if config.IncludeParams {
			for name, value := range props.Params {
				attrs = append(attrs, attribute.String("wayfinder.param."+name, value))
			}
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ctx, props)...)
		}

		spanCtx, span := config.Tracer.Start(ctx, formatSpanName(route),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		value, err := next(spanCtx)

		if redirect, ok := router.AsRedirect(err); ok {
			span.SetAttributes(attribute.String("wayfinder.redirect", redirect.URI))
			span.SetStatus(codes.Ok, "")
		} else if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return value, err
	})
}

// SpanFromContext returns the current span in ctx. It is never nil; when
// no span is active it is a no-op span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

func formatSpanName(route string) string {
	return "wayfinder " + route
}
