package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewPlaybackMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewPlaybackMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewPlaybackMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.roundsTotal)
		assert.NotNil(t, metrics.roundDuration)
		assert.NotNil(t, metrics.droppedRequests)
		assert.NotNil(t, metrics.skippedTicks)
		assert.NotNil(t, metrics.activeResources)
		assert.NotNil(t, metrics.resourceFaults)
	})
}

func TestPlaybackMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var metrics *PlaybackMetrics
	ctx := context.Background()

	// Should not panic
	metrics.RecordRound(ctx, time.Second, 3)
	metrics.RecordDroppedRequest(ctx, ReasonBusy)
	metrics.RecordSkippedTick(ctx, ReasonPaused)
	metrics.RecordActiveResources(ctx, 2)
	metrics.RecordResourceFault(ctx)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != PlaybackMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestPlaybackMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewPlaybackMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordRound(ctx, 20*time.Millisecond, 3)
	metrics.RecordRound(ctx, 10*time.Millisecond, 3)
	metrics.RecordDroppedRequest(ctx, ReasonBusy)
	metrics.RecordSkippedTick(ctx, ReasonPaused)
	metrics.RecordSkippedTick(ctx, ReasonBusy)
	metrics.RecordActiveResources(ctx, 4)
	metrics.RecordResourceFault(ctx)

	found := collect(t, reader)

	rounds, ok := found["playback_sync_rounds_total"]
	require.True(t, ok, "expected rounds counter")
	sum, ok := rounds.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	duration, ok := found["playback_sync_round_duration_seconds"]
	require.True(t, ok, "expected round duration histogram")
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)

	skipped, ok := found["playback_sync_skipped_ticks_total"]
	require.True(t, ok)
	skippedSum, ok := skipped.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, skippedSum.DataPoints, 2, "one series per reason")

	gauge, ok := found["playback_sync_active_resources"]
	require.True(t, ok)
	g, ok := gauge.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, int64(4), g.DataPoints[0].Value)

	assert.Contains(t, found, "playback_sync_dropped_requests_total")
	assert.Contains(t, found, "playback_sync_resource_faults_total")
}
