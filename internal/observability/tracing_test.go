// internal/observability/tracing_test.go
package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webtester/internal/config"
)

func TestSetupTracing_DisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	for _, cfg := range []config.TracingConfig{
		{Enabled: false, Endpoint: "localhost:4318"},
		{Enabled: true, Endpoint: ""},
	} {
		shutdown, err := SetupTracing(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))
	}

	assert.Equal(t, before, otel.GetTracerProvider(), "a disabled setup must not replace the global provider")
}

func TestSetupTracing_Enabled(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// The exporter connects lazily, so no collector is required.
	shutdown, err := SetupTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4318",
		SampleRatio: 1,
	}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, before, otel.GetTracerProvider())
	_ = shutdown(context.Background())
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("https://collector.example.com/v1/traces"), 1)
	assert.Len(t, exporterOptions("collector:4318"), 2, "bare endpoints are sent insecure")
}
