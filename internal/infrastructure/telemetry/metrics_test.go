package telemetry

import (
	"context"
	"testing"

	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := NewMeterProvider(ctx, config.TelemetryConfig{Enabled: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("invoicing"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	h, err := NewHistogram(provider.Meter("test"), "amount", "amounts", "{currency}", []float64{10, 100})
	require.NoError(t, err)
	h.Record(context.Background(), 5)
	h.Record(context.Background(), 50)
	h.Record(context.Background(), 500)

	metrics := collect(t, reader)
	hist, ok := metrics["amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, []float64{10, 100}, hist.DataPoints[0].Bounds)
	assert.Equal(t, []uint64{1, 1, 1}, hist.DataPoints[0].BucketCounts)
}
