package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/stacklok/playback-sync/internal/telemetry"
	"github.com/stacklok/playback-sync/internal/timing"
)

// Driver advances the synchronizer clock by a fixed step on every tick
// while playing. Ticks that find the synchronizer busy are skipped.
type Driver struct {
	sync   *Synchronizer
	ticker *timing.Ticker
	step   float64
}

// NewDriver creates a stopped driver for s, sharing its clock and executor
func NewDriver(s *Synchronizer) *Driver {
	return &Driver{
		sync:   s,
		ticker: timing.NewTicker(s.opts.clock, s.exec),
	}
}

// Play starts ticking. Zero arguments fall back to the configured interval
// and step. It is a no-op while already running.
func (d *Driver) Play(interval time.Duration, step float64) {
	if d.ticker.Running() || d.sync.closed {
		return
	}
	if interval <= 0 {
		interval = d.sync.opts.tickInterval
	}
	if step <= 0 {
		step = d.sync.opts.stepSize
	}

	d.step = step
	d.sync.playing = true
	slog.Info("Playback started", "interval", interval, "step", step, "current_time", d.sync.currentTime)
	d.ticker.Start(interval, d.tick)
}

// Pause stops ticking. It is a no-op while already stopped.
func (d *Driver) Pause() {
	if !d.ticker.Running() {
		return
	}
	d.ticker.Stop()
	d.sync.playing = false
	slog.Info("Playback paused", "current_time", d.sync.currentTime)
}

// Running reports whether the driver is ticking
func (d *Driver) Running() bool {
	return d.ticker.Running()
}

// Step returns the step of the current or last run
func (d *Driver) Step() float64 {
	return d.step
}

// Interval returns the tick interval of the current or last run
func (d *Driver) Interval() time.Duration {
	return d.ticker.Interval()
}

func (d *Driver) tick() {
	s := d.sync
	switch {
	case !s.playing:
		s.opts.metrics.RecordSkippedTick(context.Background(), telemetry.ReasonPaused)
		return
	case s.busy:
		slog.Debug("Skipping tick while a round is draining", "round", s.round)
		s.opts.metrics.RecordSkippedTick(context.Background(), telemetry.ReasonBusy)
		return
	}

	s.SetCurrentTime(nextTime(s.currentTime, d.step, s.duration))
}

// nextTime advances current by step, wrapping to zero past duration
func nextTime(current, step, duration float64) float64 {
	next := current + step
	if next > duration {
		return 0
	}
	return next
}
