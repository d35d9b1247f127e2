package otel

import (
	"context"
	"sync"

	eventbus "github.com/taylordaughtry/formie/internal/eventbus"
	events "github.com/taylordaughtry/formie/internal/events"
	reqid "github.com/taylordaughtry/formie/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
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

	sub := newSubscriber(otel.Tracer("formie"))
	sub.register()

	return tp.Shutdown, nil
}

// subscriber turns start/finish event pairs into spans. Spans are keyed by
// request id; service calls additionally by service and method because one
// operation calls several providers in sequence.
type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	gqlSpans  sync.Map // rid -> trace.Span
	svcSpans  sync.Map // rid/service/method -> trace.Span
}

func newSubscriber(tracer trace.Tracer) *subscriber {
	return &subscriber{tracer: tracer}
}

func (s *subscriber) register() {
	eventbus.Subscribe(s.onHTTPStart)
	eventbus.Subscribe(s.onHTTPFinish)
	eventbus.Subscribe(s.onGraphQLStart)
	eventbus.Subscribe(s.onGraphQLFinish)
	eventbus.Subscribe(s.onServiceStart)
	eventbus.Subscribe(s.onServiceFinish)
}

func (s *subscriber) onHTTPStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request")
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.String("formie.route", e.Route),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) onHTTPFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	span.End()
}

func (s *subscriber) onGraphQLStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(s.parent(ctx, rid, &s.httpSpans), "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.gqlSpans.Store(rid, span)
}

func (s *subscriber) onGraphQLFinish(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.gqlSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	span.End()
}

func (s *subscriber) onServiceStart(ctx context.Context, e events.ServiceCallStart) {
	rid, _ := reqid.FromContext(ctx)
	parent := s.parent(ctx, rid, &s.gqlSpans, &s.httpSpans)
	_, span := s.tracer.Start(parent, "formie."+e.Service+"."+e.Method)
	span.SetAttributes(
		attribute.String("formie.service", e.Service),
		attribute.String("formie.method", e.Method),
		attribute.String("formie.form", e.Form),
	)
	s.svcSpans.Store(rid+"/"+e.Service+"/"+e.Method, span)
}

func (s *subscriber) onServiceFinish(ctx context.Context, e events.ServiceCallFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.svcSpans.LoadAndDelete(rid + "/" + e.Service + "/" + e.Method)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

// parent returns ctx carrying the first live span found among candidates.
func (s *subscriber) parent(ctx context.Context, rid string, candidates ...*sync.Map) context.Context {
	for _, m := range candidates {
		if v, ok := m.Load(rid); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}
