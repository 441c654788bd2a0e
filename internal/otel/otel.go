package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/validity/internal/eventbus"
	events "github.com/hanpama/validity/internal/events"
	reqid "github.com/hanpama/validity/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("validity")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "http.request")
		span.SetAttributes(
			semconv.HTTPMethodKey.String(e.Request.Method),
			attribute.String("http.target", e.Request.URL.Path),
		)
		s.httpSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.httpSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.OperationExecuted) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.httpSpans.Load(rid); ok {
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.Int("graphql.error_count", e.Errors),
			)
		}
	})

	// Field resolutions are reported after the fact, so their spans are
	// opened and closed with explicit timestamps.
	eventbus.Subscribe(func(ctx context.Context, e events.FieldResolved) {
		parent := s.parentContext(ctx)
		_, span := s.tracer.Start(parent, "validity.resolve",
			trace.WithTimestamp(e.Start))
		span.SetAttributes(
			attribute.String("graphql.object_type", e.ObjectType),
			attribute.String("graphql.field", e.Field),
			attribute.Int64("validity.validation_us", e.ValidationDuration.Microseconds()),
			attribute.Int("validity.violations", e.Violations),
		)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End(trace.WithTimestamp(e.Start.Add(e.TotalDuration)))
	})

	eventbus.Subscribe(func(ctx context.Context, e events.GlobalValidation) {
		parent := s.parentContext(ctx)
		_, span := s.tracer.Start(parent, "validity.global",
			trace.WithTimestamp(e.Start))
		span.SetAttributes(attribute.Int("validity.violations", e.Violations))
		span.End(trace.WithTimestamp(e.Start.Add(e.Duration)))
	})
}

func (s *subscriber) parentContext(ctx context.Context) context.Context {
	rid, _ := reqid.FromContext(ctx)
	if v, ok := s.httpSpans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}
