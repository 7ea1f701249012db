// Package otel configures OpenTelemetry for the gateway: OTLP trace export
// plus a Prometheus bridge for the metric pipeline.
package otel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config selects which pipelines to start.
type Config struct {
	ServiceName    string
	OTLPEndpoint   string // host:port of the OTLP/HTTP collector, e.g. "localhost:4318"
	MetricsEnabled bool
	TracingEnabled bool
}

// Shutdown flushes and stops every started pipeline.
type Shutdown func(ctx context.Context) error

// Setup installs the global tracer and meter providers per cfg. Pipelines
// are independent: tracing also needs an endpoint, metrics run standalone
// through the Prometheus reader.
func Setup(ctx context.Context, cfg Config) (Shutdown, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	var shutdowns []func(ctx context.Context) error

	if cfg.TracingEnabled && cfg.OTLPEndpoint != "" {
		tp, err := newTracerProvider(ctx, cfg.OTLPEndpoint, res)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.MetricsEnabled {
		reader, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("otel prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(reader),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return func(ctx context.Context) error {
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				slog.Error("otel shutdown", "error", err)
			}
		}
		return nil
	}, nil
}

func newTracerProvider(ctx context.Context, endpoint string, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otel trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	), nil
}
