// Package timing provides cancellable, clock-driven coalescing primitives.
//
// Every primitive is owned by a single goroutine. Timer callbacks never run
// user code directly: they hand a closure to the owner's Executor, and the
// closure discards itself if the timer was cancelled or replaced in the
// meantime. Callbacks also never call back into the clock, which keeps the
// primitives usable with k8s.io/utils/clock/testing.FakeClock.
package timing

import (
	"time"

	"k8s.io/utils/clock"
)

// Executor runs fn on the goroutine that owns a primitive
type Executor func(fn func())

// Debouncer collapses a burst of Trigger calls into a single call of fn,
// issued once no Trigger has arrived for a full window.
type Debouncer struct {
	clock  clock.WithDelayedExecution
	window time.Duration
	exec   Executor
	fn     func()

	timer clock.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer that runs fn through exec
func NewDebouncer(clk clock.WithDelayedExecution, window time.Duration, exec Executor, fn func()) *Debouncer {
	return &Debouncer{
		clock:  clk,
		window: window,
		exec:   exec,
		fn:     fn,
	}
}

// Trigger (re)starts the quiet window
func (d *Debouncer) Trigger() {
	d.stop()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() {
		d.exec(func() { d.fire(gen) })
	})
}

// Cancel drops a pending call
func (d *Debouncer) Cancel() {
	d.stop()
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}

// Window returns the quiet window
func (d *Debouncer) Window() time.Duration {
	return d.window
}

func (d *Debouncer) fire(gen uint64) {
	if gen != d.gen || d.timer == nil {
		return
	}
	d.timer = nil
	d.fn()
}

func (d *Debouncer) stop() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
