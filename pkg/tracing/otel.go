package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/snow-ghost/thoughtsearch/core"
)

// Tracer wraps an OpenTelemetry tracer provider. Its Tracer is what the
// search engine receives through search.WithTracer.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Config holds tracing configuration
type Config struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	JaegerEndpoint string `yaml:"jaeger_endpoint"` // empty disables export
	Environment    string `yaml:"environment"`

	// Exporter overrides the Jaeger exporter and is flushed synchronously.
	Exporter sdktrace.SpanExporter `yaml:"-"`
}

// NewTracer creates a tracer provider and installs it as the global provider.
func NewTracer(config Config) (*Tracer, error) {
	if config.ServiceName == "" {
		config.ServiceName = "thoughtsearch"
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch {
	case config.Exporter != nil:
		opts = append(opts, sdktrace.WithSyncer(config.Exporter))
	case config.JaegerEndpoint != "":
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		provider: tp,
		tracer:   tp.Tracer(config.ServiceName),
	}, nil
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// StartSpan starts a new span
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartRequestSpan starts the span wrapping one solve request.
func (t *Tracer) StartRequestSpan(ctx context.Context, requestID, caller, strategy string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "solve.request", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.caller", caller),
		attribute.String("search.strategy", strategy),
	))
}

// RecordOutcome annotates span with a search result.
func RecordOutcome(span trace.Span, out core.Outcome) {
	span.SetAttributes(
		attribute.String("search.run_id", out.RunID),
		attribute.String("search.status", string(out.Status)),
		attribute.Int("search.nodes_explored", out.NodesExplored),
		attribute.Int("search.depth", out.Depth),
		attribute.Float64("search.final_score", out.FinalScore),
		attribute.Bool("search.threshold_reached", out.ThresholdReached),
		attribute.Float64("duration_ms", float64(out.Duration.Nanoseconds())/1e6),
	)
}

// RecordSpanError records an error in a span
func RecordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordSpanSuccess records success in a span
func RecordSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Shutdown flushes and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// GetTraceID extracts trace ID from context
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
