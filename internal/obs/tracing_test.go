package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitTracerNoneExporter(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{ServiceName: "landed-quote", Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracerRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracer(context.Background(), TracingConfig{Exporter: "zipkin"})
	require.ErrorContains(t, err, "zipkin")
}

func TestSamplerDescription(t *testing.T) {
	require.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
