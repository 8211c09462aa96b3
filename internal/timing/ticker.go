package timing

import (
	"time"

	"k8s.io/utils/clock"
)

// Ticker calls fn repeatedly, once per interval, until stopped.
// The next tick is armed before fn runs, so fn may stop the ticker.
type Ticker struct {
	clock clock.WithDelayedExecution
	exec  Executor

	interval time.Duration
	fn       func()
	running  bool

	timer clock.Timer
	gen   uint64
}

// NewTicker creates a stopped ticker
func NewTicker(clk clock.WithDelayedExecution, exec Executor) *Ticker {
	return &Ticker{
		clock: clk,
		exec:  exec,
	}
}

// Start begins ticking. It is a no-op when already running.
func (t *Ticker) Start(interval time.Duration, fn func()) {
	if t.running {
		return
	}
	t.running = true
	t.interval = interval
	t.fn = fn
	t.gen++
	t.arm()
}

// Stop cancels the next tick. It is a no-op when not running.
func (t *Ticker) Stop() {
	if !t.running {
		return
	}
	t.running = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Running reports whether the ticker is started
func (t *Ticker) Running() bool {
	return t.running
}

// Interval returns the interval of the current or last run
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

func (t *Ticker) arm() {
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.interval, func() {
		t.exec(func() { t.tick(gen) })
	})
}

func (t *Ticker) tick(gen uint64) {
	if gen != t.gen || !t.running {
		return
	}
	t.arm()
	t.fn()
}
