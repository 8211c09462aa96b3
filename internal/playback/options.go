package playback

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/playback-sync/internal/telemetry"
)

const (
	// DefaultDebounceWindow is the quiet window for coalescing resync requests
	DefaultDebounceWindow = 100 * time.Millisecond
	// DefaultThrottleWindow bounds how often OnTimeChanged is delivered
	DefaultThrottleWindow = 300 * time.Millisecond
	// DefaultTickInterval is the driver tick interval used when Play gets zero
	DefaultTickInterval = 500 * time.Millisecond
	// DefaultStepSize is the logical time the driver advances per tick
	DefaultStepSize = 0.2
	// DefaultPlaybackRate is applied to resources unless overridden
	DefaultPlaybackRate = 1.0
)

type options struct {
	clock          clock.WithDelayedExecution
	debounceWindow time.Duration
	throttleWindow time.Duration
	tickInterval   time.Duration
	stepSize       float64
	playbackRate   float64
	listeners      []Listener
	metrics        *telemetry.PlaybackMetrics
	tracer         trace.Tracer
}

func defaultOptions() options {
	return options{
		clock:          clock.RealClock{},
		debounceWindow: DefaultDebounceWindow,
		throttleWindow: DefaultThrottleWindow,
		tickInterval:   DefaultTickInterval,
		stepSize:       DefaultStepSize,
		playbackRate:   DefaultPlaybackRate,
	}
}

// Option configures a Synchronizer or Player
type Option func(*options)

// WithClock sets the clock driving every timer
func WithClock(clk clock.WithDelayedExecution) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithDebounceWindow sets the resync debounce window
func WithDebounceWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounceWindow = d
		}
	}
}

// WithThrottleWindow sets the OnTimeChanged throttle window
func WithThrottleWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.throttleWindow = d
		}
	}
}

// WithTickInterval sets the default driver tick interval
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

// WithStepSize sets the default driver step
func WithStepSize(step float64) Option {
	return func(o *options) {
		if step > 0 {
			o.stepSize = step
		}
	}
}

// WithPlaybackRate sets the initial playback rate
func WithPlaybackRate(rate float64) Option {
	return func(o *options) {
		if rate > 0 {
			o.playbackRate = rate
		}
	}
}

// WithListener registers a listener for render and time change notifications
func WithListener(l Listener) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// WithOnRender registers fn as an OnRender callback
func WithOnRender(fn func(t float64)) Option {
	return WithListener(ListenerFuncs{Render: fn})
}

// WithOnTimeChanged registers fn as an OnTimeChanged callback
func WithOnTimeChanged(fn func(t float64)) Option {
	return WithListener(ListenerFuncs{TimeChanged: fn})
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.PlaybackMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for round spans
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}
