// Package tracing provides a thin wrapper around opentracing-go, used
// to annotate the network façade's hard-path operations (wait_thread,
// channel_signal) with spans tagged by outcome. Initialize installs
// either a named jaeger tracer or the opentracing no-op tracer as the
// global tracer, replacing whatever was installed before.
package tracing

import (
	"context"
	"io"

	"github.com/opentracing/opentracing-go"
	jaeger "github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Initialize installs a jaeger tracer named serviceName as the global
// opentracing tracer and returns its io.Closer. If serviceName is
// empty, tracing is left as a no-op (opentracing.NoopTracer).
func Initialize(serviceName string) (io.Closer, error) {
	if serviceName == "" {
		opentracing.SetGlobalTracer(opentracing.NoopTracer{})
		return io.NopCloser(nil), nil
	}

	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans: false,
		},
	}
	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

// StartSpan starts a span for operation op, deriving a parent from ctx
// if one is present, and returns the span along with a context carrying
// it for any further nested calls.
func StartSpan(ctx context.Context, op string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, op)
}

// FinishOutcome tags span with the outcome of the operation it covers
// and finishes it. outcome is a short, stable label such as "ok",
// "not_found", or "deadlock" — never a free-form error message, so that
// spans stay cheap to aggregate on.
func FinishOutcome(span opentracing.Span, outcome string) {
	span.SetTag("outcome", outcome)
	span.Finish()
}
