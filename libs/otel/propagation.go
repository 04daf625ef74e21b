package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	headerTraceparent = "traceparent"
	headerTracestate  = "tracestate"
)

// TraceHeaders is a span's W3C trace context flattened for storage, so work
// queued in one transaction can be continued by a later publisher.
type TraceHeaders struct {
	Traceparent string
	Tracestate  string
}

// CaptureTraceHeaders reads the active span context from ctx. Both fields are
// empty when ctx carries no sampled span or no propagator is installed.
func CaptureTraceHeaders(ctx context.Context) TraceHeaders {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceHeaders{
		Traceparent: carrier[headerTraceparent],
		Tracestate:  carrier[headerTracestate],
	}
}

func (h TraceHeaders) IsZero() bool {
	return h.Traceparent == "" && h.Tracestate == ""
}

// Attach returns ctx with h installed as the remote parent span.
func (h TraceHeaders) Attach(ctx context.Context) context.Context {
	if h.IsZero() {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier{
		headerTraceparent: h.Traceparent,
		headerTracestate:  h.Tracestate,
	})
}
