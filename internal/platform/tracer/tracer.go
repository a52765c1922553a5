package tracer

import (
	"context"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/config"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const exporterTimeout = 10 * time.Second

// Sampler keeps the caller's sampling decision and samples new root traces
// at ratio. Ratios outside (0, 1) clamp to never or always.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newResource(service string, cfg *config.TracingConfig) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(service)}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return resource.NewSchemaless(attrs...)
	}
	return res
}

// InitTracer installs the global propagator and tracer provider. Spans from
// the HTTP middleware, the use cases and the NATS publisher all hang off it.
// Without an OTLP endpoint the provider samples as configured but exports
// nothing; an exporter that cannot be built is logged and treated the same.
func InitTracer(service string, cfg *config.TracingConfig, log *logger.Logger) *sdktrace.TracerProvider {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
		sdktrace.WithResource(newResource(service, cfg)),
	}

	if cfg.OTLPEndpoint == "" {
		log.Info("trace export disabled: no OTLP endpoint configured")
	} else {
		// The gRPC connection is lazy, so a collector that is down at start
		// does not delay boot; batches are retried by the exporter.
		exporter, err := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithTimeout(exporterTimeout),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		if err != nil {
			log.Error("failed to create OTLP trace exporter", zap.String("endpoint", cfg.OTLPEndpoint), zap.Error(err))
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
			log.Info("exporting traces",
				zap.String("endpoint", cfg.OTLPEndpoint),
				zap.Float64("sample_ratio", cfg.SampleRatio),
				zap.String("environment", cfg.Environment))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp
}
