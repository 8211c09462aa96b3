package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// PlaybackMetricsMeterName is the name used for the playback metrics meter
	PlaybackMetricsMeterName = "github.com/stacklok/playback-sync/playback"
	// PlaybackTracerName is the name used for the synchronizer round spans
	PlaybackTracerName = "github.com/stacklok/playback-sync/playback"
)

// Reasons attached to dropped requests and skipped ticks
const (
	ReasonBusy   = "busy"
	ReasonPaused = "paused"
)

// PlaybackMetrics holds the OpenTelemetry instruments for the synchronizer
type PlaybackMetrics struct {
	roundsTotal     metric.Int64Counter
	roundDuration   metric.Float64Histogram
	droppedRequests metric.Int64Counter
	skippedTicks    metric.Int64Counter
	activeResources metric.Int64Gauge
	resourceFaults  metric.Int64Counter
}

// NewPlaybackMetrics creates a new PlaybackMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewPlaybackMetrics(provider metric.MeterProvider) (*PlaybackMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PlaybackMetricsMeterName)

	roundsTotal, err := meter.Int64Counter(
		"playback_sync_rounds_total",
		metric.WithDescription("Number of completed synchronization rounds"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	roundDuration, err := meter.Float64Histogram(
		"playback_sync_round_duration_seconds",
		metric.WithDescription("Time from seek broadcast to the last acknowledgement"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, err
	}

	droppedRequests, err := meter.Int64Counter(
		"playback_sync_dropped_requests_total",
		metric.WithDescription("Seek requests rejected while a round was draining"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	skippedTicks, err := meter.Int64Counter(
		"playback_sync_skipped_ticks_total",
		metric.WithDescription("Driver ticks skipped because playback was paused or busy"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	activeResources, err := meter.Int64Gauge(
		"playback_sync_active_resources",
		metric.WithDescription("Number of ready resources participating in synchronization"),
		metric.WithUnit("{resource}"),
	)
	if err != nil {
		return nil, err
	}

	resourceFaults, err := meter.Int64Counter(
		"playback_sync_resource_faults_total",
		metric.WithDescription("Resources that reported an error instead of readiness"),
		metric.WithUnit("{resource}"),
	)
	if err != nil {
		return nil, err
	}

	return &PlaybackMetrics{
		roundsTotal:     roundsTotal,
		roundDuration:   roundDuration,
		droppedRequests: droppedRequests,
		skippedTicks:    skippedTicks,
		activeResources: activeResources,
		resourceFaults:  resourceFaults,
	}, nil
}

// RecordRound records one completed synchronization round
func (m *PlaybackMetrics) RecordRound(ctx context.Context, duration time.Duration, resources int) {
	if m == nil || m.roundsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("empty", resources == 0))
	m.roundsTotal.Add(ctx, 1, attrs)
	m.roundDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDroppedRequest records a seek request rejected by single-flight
func (m *PlaybackMetrics) RecordDroppedRequest(ctx context.Context, reason string) {
	if m == nil || m.droppedRequests == nil {
		return
	}

	m.droppedRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordSkippedTick records a driver tick that did not advance the clock
func (m *PlaybackMetrics) RecordSkippedTick(ctx context.Context, reason string) {
	if m == nil || m.skippedTicks == nil {
		return
	}

	m.skippedTicks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordActiveResources records the size of the active set
func (m *PlaybackMetrics) RecordActiveResources(ctx context.Context, count int) {
	if m == nil || m.activeResources == nil {
		return
	}

	m.activeResources.Record(ctx, int64(count))
}

// RecordResourceFault records a resource acquisition failure
func (m *PlaybackMetrics) RecordResourceFault(ctx context.Context) {
	if m == nil || m.resourceFaults == nil {
		return
	}

	m.resourceFaults.Add(ctx, 1)
}
