package media

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Simulated is an in-process Resource. It becomes ready after a configurable
// load latency and acknowledges every seek after a configurable seek latency,
// or only when Ack is called in manual mode.
type Simulated struct {
	id    string
	clock clock.WithDelayedExecution

	seekLatency time.Duration
	loadLatency time.Duration
	manualAck   bool
	failure     error

	mu           sync.Mutex
	currentTime  float64
	playbackRate float64
	loop         bool
	duration     float64
	pendingAcks  int
	loading      bool
	closed       bool

	ready  Once[struct{}]
	failed Once[error]
	seeked Signal[struct{}]
}

// SimulatedOption configures a Simulated resource
type SimulatedOption func(*Simulated)

// WithClock sets the clock used for load and seek latencies
func WithClock(clk clock.WithDelayedExecution) SimulatedOption {
	return func(s *Simulated) {
		s.clock = clk
	}
}

// WithSeekLatency delays every seek acknowledgement by d
func WithSeekLatency(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.seekLatency = d
	}
}

// WithLoadLatency delays readiness by d after Load
func WithLoadLatency(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.loadLatency = d
	}
}

// WithManualAck holds seek acknowledgements until Ack is called
func WithManualAck() SimulatedOption {
	return func(s *Simulated) {
		s.manualAck = true
	}
}

// WithStartTime sets the resource's native time before any seek
func WithStartTime(t float64) SimulatedOption {
	return func(s *Simulated) {
		s.currentTime = t
	}
}

// WithFailure makes Load report err instead of becoming ready
func WithFailure(err error) SimulatedOption {
	return func(s *Simulated) {
		s.failure = err
	}
}

// NewSimulated creates a simulated resource with the given id and duration in seconds
func NewSimulated(id string, duration float64, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		id:           id,
		clock:        clock.RealClock{},
		duration:     duration,
		playbackRate: 1.0,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the resource id
func (s *Simulated) ID() string {
	return s.id
}

// CurrentTime returns the time of the last seek
func (s *Simulated) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// SetCurrentTime seeks to t and schedules the matching acknowledgement
func (s *Simulated) SetCurrentTime(t float64) {
	s.mu.Lock()
	s.currentTime = t
	switch {
	case s.manualAck:
		s.pendingAcks++
		s.mu.Unlock()
	case s.seekLatency > 0:
		s.mu.Unlock()
		s.schedule(s.seekLatency, s.emitSeeked)
	default:
		s.mu.Unlock()
		s.emitSeeked()
	}
}

// PlaybackRate returns the configured playback rate
func (s *Simulated) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playbackRate
}

// SetPlaybackRate sets the playback rate
func (s *Simulated) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playbackRate = rate
}

// Loop reports whether looped playback is enabled
func (s *Simulated) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetLoop enables or disables looped playback
func (s *Simulated) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

// Duration returns the duration in seconds
func (s *Simulated) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// IsReady reports whether the resource has become ready
func (s *Simulated) IsReady() bool {
	return s.ready.Fired()
}

// OnReady subscribes to the single readiness event
func (s *Simulated) OnReady(fn func()) Subscription {
	return s.ready.Subscribe(func(struct{}) { fn() })
}

// OnSeeked subscribes to seek acknowledgements
func (s *Simulated) OnSeeked(fn func()) Subscription {
	return s.seeked.Subscribe(func(struct{}) { fn() })
}

// OnError subscribes to the load failure, if any
func (s *Simulated) OnError(fn func(error)) Subscription {
	return s.failed.Subscribe(fn)
}

// Load starts loading. The resource becomes ready, or fails when configured
// with WithFailure, after the load latency. Calling Load twice is a no-op.
func (s *Simulated) Load() {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	finish := s.MarkReady
	if s.failure != nil {
		err := s.failure
		finish = func() { s.Fail(err) }
	}
	s.mu.Unlock()

	if s.loadLatency > 0 {
		s.schedule(s.loadLatency, finish)
		return
	}
	finish()
}

// MarkReady makes the resource ready. It is a no-op after a failure or a
// previous readiness.
func (s *Simulated) MarkReady() {
	if s.failed.Fired() {
		return
	}
	s.ready.Fire(struct{}{})
}

// Fail reports err on the error channel. A failed resource never becomes ready.
func (s *Simulated) Fail(err error) {
	if s.ready.Fired() {
		return
	}
	s.failed.Fire(err)
}

// Ack delivers one outstanding acknowledgement in manual mode.
// It returns false when nothing was outstanding.
func (s *Simulated) Ack() bool {
	s.mu.Lock()
	if s.pendingAcks == 0 {
		s.mu.Unlock()
		return false
	}
	s.pendingAcks--
	s.mu.Unlock()

	s.emitSeeked()
	return true
}

// PendingAcks returns the number of acknowledgements held in manual mode
func (s *Simulated) PendingAcks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingAcks
}

// Close turns every load or seek still scheduled into a no-op
func (s *Simulated) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Simulated) emitSeeked() {
	s.seeked.Emit(struct{}{})
}

// schedule must be called without mu held; the clock may run callbacks
// while holding its own lock.
func (s *Simulated) schedule(d time.Duration, fn func()) {
	s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			fn()
		}
	})
}
