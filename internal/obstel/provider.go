// Package obstel implements corekit.Telemetry on top of the OpenTelemetry
// SDK, the way the teacher framework's OTelProvider wraps OTel behind
// core.Telemetry. ralph trades the teacher's OTLP/HTTP exporter for the
// stdout exporter: a code-fixing CLI run has no long-lived collector to
// export to, so tracing is for local/verbose-mode inspection, not a
// production pipeline.
package obstel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// Provider implements corekit.Telemetry using an OTel TracerProvider. When
// verbose is false the provider is constructed but spans are dropped at the
// SDK level via an always-off sampler, keeping the interface identical
// whether or not tracing is actually wanted.
type Provider struct {
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider
	shutdownOnce  sync.Once
}

// New creates a telemetry provider for the named run. When verbose is true,
// spans are printed to stdout as they complete; otherwise they are sampled
// out entirely (near-zero overhead, same code path).
func New(serviceName string, verbose bool) (*Provider, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("obstel: service name cannot be empty")
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	sampler := sdktrace.NeverSample()
	var opts []sdktrace.TracerProviderOption
	opts = append(opts, sdktrace.WithResource(res))
	if verbose {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("obstel: create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	} else {
		opts = append(opts, sdktrace.WithSampler(sampler))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	return &Provider{
		tracer: tp.Tracer(serviceName),
		meter:  otel.Meter(serviceName),

		traceProvider: tp,
	}, nil
}

// StartSpan starts a new traced operation.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, corekit.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &spanWrapper{span: span}
}

// RecordMetric records a single observation. ralph only needs point
// observations (cost deltas, iteration counts), so this uses a float64
// gauge created on first use per metric name.
func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	gauge, err := p.meter.Float64Gauge(name)
	if err != nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	gauge.Record(context.Background(), value, metric.WithAttributes(attrs...))
}

// Shutdown flushes and stops the trace provider. Safe to call multiple times.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		err = p.traceProvider.Shutdown(ctx)
	})
	return err
}

var _ corekit.Telemetry = (*Provider)(nil)

type spanWrapper struct {
	span trace.Span
}

func (s *spanWrapper) End() { s.span.End() }

func (s *spanWrapper) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprint(v)))
	}
}

func (s *spanWrapper) RecordError(err error) {
	s.span.RecordError(err)
}
