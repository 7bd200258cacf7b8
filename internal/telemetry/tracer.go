// Package telemetry builds the tracer provider behind every command and API call.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/config"
)

// ShutdownTimeout bounds how long Shutdown waits for the exporter to drain
const ShutdownTimeout = 10 * time.Second

// Option adjusts provider construction
type Option func(*options)

type options struct {
	exporters []sdktrace.SpanExporter
}

// WithExporter registers an extra exporter, synchronously flushed on every span end
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporters = append(o.exporters, exp) }
}

// NewTracerProvider returns an SDK provider. Spans are shipped to the OTLP
// collector only when cfg.OTLPEndpoint is set; otherwise they stay in process.
func NewTracerProvider(ctx context.Context, cfg config.TelemetryConfig, version string, log *zap.Logger, opts ...Option) (*sdktrace.TracerProvider, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRatio)),
	}

	if cfg.OTLPEndpoint != "" {
		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
		log.Debug("Exporting spans",
			zap.String("endpoint", cfg.OTLPEndpoint),
			zap.Float64("sampling_ratio", cfg.SamplingRatio),
		)
	}
	for _, exp := range o.exporters {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch ratio {
	case 1.0:
		return sdktrace.AlwaysSample()
	case 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(ratio)
	}
}

// Shutdown flushes pending spans, giving up after ShutdownTimeout
func Shutdown(tp *sdktrace.TracerProvider, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush spans", zap.Error(err))
	}
}
