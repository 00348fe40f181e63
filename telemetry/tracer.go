package telemetry

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/treeprogram/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "treeprogram"

// ShutdownFunc flushes and stops the exporter.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs a global tracer provider exporting spans over OTLP/HTTP to
// endpoint (host:port). An empty endpoint leaves the noop provider in place.
func Init(ctx context.Context, endpoint string) (ShutdownFunc, error) {
	if endpoint == "" {
		log.Debug(log.TelemetryMonitoring, "tracing disabled")
		return noopShutdown, nil
	}
	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("otlp exporter %s: %w", endpoint, err)
	}
	tp := NewProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	log.Info(log.TelemetryMonitoring, "tracing enabled", "endpoint", endpoint)
	return tp.Shutdown, nil
}

// NewProvider returns an sdk provider tagged with the service name.
func NewProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))
	return sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)...)
}

// Tracer returns a tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(ServiceName + "/" + name)
}
