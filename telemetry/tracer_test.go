package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestProviderRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := NewProvider(sdktrace.WithSpanProcessor(rec))
	_, span := tp.Tracer("test").Start(context.Background(), "invoke")
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "invoke", spans[0].Name())
	v, ok := spans[0].Resource().Set().Value("service.name")
	require.True(t, ok)
	require.Equal(t, ServiceName, v.AsString())
}
