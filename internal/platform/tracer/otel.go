package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "creditgate"

// blockedKeys never reach an exporter, whatever a caller passes.
var blockedKeys = map[string]struct{}{
	"consumer_id": {},
	"ssn":         {},
	"report":      {},
}

type otelTracer struct {
	tracer trace.Tracer
}

// New returns a Tracer backed by tp. A nil tp means the global provider,
// which stays a no-op until an SDK is installed.
func New(tp trace.TracerProvider) Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &otelTracer{tracer: tp.Tracer(instrumentationName)}
}

// NewNoop returns a Tracer that records nothing.
func NewNoop() Tracer {
	return New(noop.NewTracerProvider())
}

func (t *otelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(convert(attrs)...))
	return ctx, otelSpan{span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(convert(attrs)...)
}

func (s otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(convert(attrs)...))
}

// convert drops blocked keys and values of unsupported types.
func convert(attrs []Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if _, blocked := blockedKeys[a.Key]; blocked {
			continue
		}
		if kv, ok := a.keyValue(); ok {
			out = append(out, kv)
		}
	}
	return out
}

func (a Attribute) keyValue() (attribute.KeyValue, bool) {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v), true
	case bool:
		return attribute.Bool(a.Key, v), true
	case int:
		return attribute.Int(a.Key, v), true
	case int64:
		return attribute.Int64(a.Key, v), true
	case float64:
		return attribute.Float64(a.Key, v), true
	case []string:
		return attribute.StringSlice(a.Key, v), true
	}
	return attribute.KeyValue{}, false
}
