package timing

import (
	"time"

	"k8s.io/utils/clock"
)

// Throttler delivers values to fn at most once per window.
//
// A call made while the window is open is delivered immediately. Calls made
// while it is closed are coalesced: only the latest value is kept and it is
// delivered when the window ends, which starts the next window.
type Throttler[T any] struct {
	clock  clock.WithDelayedExecution
	window time.Duration
	exec   Executor
	fn     func(T)

	last    time.Time
	started bool

	pending    T
	hasPending bool

	timer clock.Timer
	gen   uint64
}

// NewThrottler creates a throttler that runs fn through exec
func NewThrottler[T any](clk clock.WithDelayedExecution, window time.Duration, exec Executor, fn func(T)) *Throttler[T] {
	return &Throttler[T]{
		clock:  clk,
		window: window,
		exec:   exec,
		fn:     fn,
	}
}

// Call offers v for delivery
func (t *Throttler[T]) Call(v T) {
	now := t.clock.Now()
	if !t.started || now.Sub(t.last) >= t.window {
		// a trailing delivery still queued would carry an older value
		t.stop()
		t.deliver(now, v)
		return
	}

	t.pending = v
	t.hasPending = true
	if t.timer != nil {
		return
	}

	gen := t.gen
	t.timer = t.clock.AfterFunc(t.window-now.Sub(t.last), func() {
		t.exec(func() { t.trailing(gen) })
	})
}

// Cancel drops a pending trailing delivery
func (t *Throttler[T]) Cancel() {
	t.stop()
}

// Pending reports whether a trailing delivery is scheduled
func (t *Throttler[T]) Pending() bool {
	return t.hasPending
}

func (t *Throttler[T]) trailing(gen uint64) {
	if gen != t.gen || t.timer == nil {
		return
	}
	t.timer = nil
	if !t.hasPending {
		return
	}
	v := t.pending
	t.clearPending()
	t.deliver(t.clock.Now(), v)
}

func (t *Throttler[T]) deliver(now time.Time, v T) {
	t.last = now
	t.started = true
	t.fn(v)
}

func (t *Throttler[T]) clearPending() {
	var zero T
	t.pending = zero
	t.hasPending = false
}

func (t *Throttler[T]) stop() {
	t.gen++
	t.clearPending()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
