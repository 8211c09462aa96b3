package playback

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/stacklok/playback-sync/internal/timing"
)

//go:generate mockgen -destination=mocks/mock_listener.go -package=mocks -source=listener.go Listener

// Listener receives notifications when rounds complete.
// Both methods run on the player's event loop.
type Listener interface {
	// OnRender is called once per completed round, unthrottled
	OnRender(t float64)
	// OnTimeChanged is called after OnRender, at most once per throttle window
	OnTimeChanged(t float64)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Render      func(t float64)
	TimeChanged func(t float64)
}

// OnRender implements Listener
func (f ListenerFuncs) OnRender(t float64) {
	if f.Render != nil {
		f.Render(t)
	}
}

// OnTimeChanged implements Listener
func (f ListenerFuncs) OnTimeChanged(t float64) {
	if f.TimeChanged != nil {
		f.TimeChanged(t)
	}
}

// hub fans notifications out to listeners
type hub struct {
	listeners []Listener
	throttle  *timing.Throttler[float64]
}

func newHub(clk clock.WithDelayedExecution, window time.Duration, exec timing.Executor, listeners []Listener) *hub {
	h := &hub{listeners: append([]Listener(nil), listeners...)}
	h.throttle = timing.NewThrottler(clk, window, exec, h.deliverTimeChanged)
	return h
}

func (h *hub) add(l Listener) {
	h.listeners = append(h.listeners, l)
}

func (h *hub) render(t float64) {
	for _, l := range h.listeners {
		l.OnRender(t)
	}
}

func (h *hub) timeChanged(t float64) {
	h.throttle.Call(t)
}

// pending reports whether a throttled OnTimeChanged is still owed
func (h *hub) pending() bool {
	return h.throttle.Pending()
}

func (h *hub) deliverTimeChanged(t float64) {
	for _, l := range h.listeners {
		l.OnTimeChanged(t)
	}
}

func (h *hub) close() {
	h.throttle.Cancel()
}
