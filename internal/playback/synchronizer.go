package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/playback-sync/internal/media"
	"github.com/stacklok/playback-sync/internal/otel"
	"github.com/stacklok/playback-sync/internal/telemetry"
	"github.com/stacklok/playback-sync/internal/timing"
)

// Synchronizer is the playback state machine. It must only be used from the
// goroutine that runs its Executor.
type Synchronizer struct {
	opts     options
	exec     timing.Executor
	registry *registry
	hub      *hub
	resync   *timing.Debouncer

	currentTime  float64
	duration     float64
	playbackRate float64
	playing      bool
	busy         bool
	changed      bool

	drain      map[*entry]struct{}
	round      uint64
	roundSize  int
	roundStart time.Time
	roundSpan  trace.Span

	closed bool
}

// NewSynchronizer creates an idle synchronizer. exec must run the closures
// it receives on the synchronizer's goroutine, after the caller returns.
func NewSynchronizer(exec timing.Executor, opts ...Option) *Synchronizer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Synchronizer{
		opts:         o,
		exec:         exec,
		playbackRate: o.playbackRate,
	}
	s.registry = newRegistry(exec, registryHooks{
		ready:  s.resourceReady,
		seeked: s.ack,
		failed: s.resourceFailed,
	})
	s.hub = newHub(o.clock, o.throttleWindow, exec, o.listeners)
	s.resync = timing.NewDebouncer(o.clock, o.debounceWindow, exec, func() {
		s.SetCurrentTime(s.currentTime)
	})
	return s
}

// AddListener registers l for notifications
func (s *Synchronizer) AddListener(l Listener) {
	if l != nil {
		s.hub.add(l)
	}
}

// AddResource registers res. It takes part in rounds once it reports
// readiness, at which point onReady is called with it.
func (s *Synchronizer) AddResource(res media.Resource, onReady func(media.Resource), opts ...ResourceOption) error {
	if s.closed {
		return ErrPlayerStopped
	}
	if _, err := s.registry.add(res, onReady, s.playbackRate, opts...); err != nil {
		slog.Warn("Rejecting resource", "resource_id", res.ID(), "error", err)
		return fmt.Errorf("add %q: %w", res.ID(), err)
	}
	slog.Debug("Resource registered", "resource_id", res.ID())
	return nil
}

// RemoveResource unregisters res and strikes it from the round in flight
func (s *Synchronizer) RemoveResource(res media.Resource) error {
	if e, ok := s.registry.get(res.ID()); !ok || e.res != res {
		slog.Debug("Ignoring removal of unregistered resource", "resource_id", res.ID())
		return fmt.Errorf("remove %q: %w", res.ID(), ErrUnknownResource)
	}
	return s.RemoveResourceByID(res.ID())
}

// RemoveResourceByID unregisters the resource with the given id
func (s *Synchronizer) RemoveResourceByID(id string) error {
	e, err := s.registry.remove(id)
	if err != nil {
		slog.Debug("Ignoring removal of unregistered resource", "resource_id", id)
		return fmt.Errorf("remove %q: %w", id, err)
	}
	slog.Debug("Resource removed", "resource_id", id, "was_ready", e.ready)

	if e.ready {
		s.opts.metrics.RecordActiveResources(context.Background(), len(s.registry.active()))
	}
	s.strike(e)
	return nil
}

// SetCurrentTime starts a round at t. It returns false when the request was
// dropped because a round is still draining.
func (s *Synchronizer) SetCurrentTime(t float64) bool {
	if s.closed {
		return false
	}
	if s.busy {
		slog.Debug("Dropping seek request while a round is draining",
			"requested_time", t,
			"round", s.round,
			"awaiting", len(s.drain))
		s.opts.metrics.RecordDroppedRequest(context.Background(), telemetry.ReasonBusy)
		return false
	}
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		t = 0
	}

	s.busy = true
	s.changed = true
	s.currentTime = t
	s.round++

	active := s.registry.active()
	s.drain = make(map[*entry]struct{}, len(active))
	for _, e := range active {
		s.drain[e] = struct{}{}
	}
	s.roundSize = len(active)
	s.roundStart = s.opts.clock.Now()
	_, s.roundSpan = otel.StartSpan(context.Background(), s.opts.tracer, "playback.sync_round",
		trace.WithAttributes(
			otel.AttrSyncRound.Int64(int64(s.round)),
			otel.AttrPlaybackTime.Float64(t),
			otel.AttrResourceCount.Int(len(active)),
			otel.AttrPlaybackRate.Float64(s.playbackRate),
		))

	// drain set is built before the first seek goes out
	for _, e := range active {
		s.registry.seek(e, t)
	}

	if len(active) == 0 {
		s.complete()
	}
	return true
}

// RequestResync schedules a debounced round at the current time
func (s *Synchronizer) RequestResync() {
	if s.closed {
		return
	}
	s.resync.Trigger()
}

// SetDuration sets the logical duration. Negative values are rejected.
func (s *Synchronizer) SetDuration(d float64) error {
	if err := validateDuration(d); err != nil {
		return err
	}
	s.duration = d
	return nil
}

// SetPlaybackRate applies rate to every resource that does not pin its own
// rate, now and on future adds
func (s *Synchronizer) SetPlaybackRate(rate float64) error {
	if err := validatePlaybackRate(rate); err != nil {
		return err
	}
	s.playbackRate = rate
	for _, e := range s.registry.all() {
		e.res.SetPlaybackRate(e.effectiveRate(rate))
	}
	return nil
}

func validateDuration(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("%w: duration %v must be a finite, non-negative number", ErrInvalidValue, d)
	}
	return nil
}

func validatePlaybackRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w: playback rate %v must be a finite, positive number", ErrInvalidValue, rate)
	}
	return nil
}

// CurrentTime returns the logical time of the last accepted round
func (s *Synchronizer) CurrentTime() float64 {
	return s.currentTime
}

// Duration returns the logical duration
func (s *Synchronizer) Duration() float64 {
	return s.duration
}

// Busy reports whether a round is draining
func (s *Synchronizer) Busy() bool {
	return s.busy
}

// Playing reports whether the driver is advancing the clock
func (s *Synchronizer) Playing() bool {
	return s.playing
}

// State returns a snapshot of the clock
func (s *Synchronizer) State() State {
	active, pending := s.registry.counts()
	st := State{
		CurrentTime:       s.currentTime,
		Duration:          s.duration,
		PlaybackRate:      s.playbackRate,
		Playing:           s.playing,
		Busy:              s.busy,
		PendingTimeChange: s.changed || s.hub.pending(),
		Phase:             PhaseIdle,
		Round:             s.round,
		ActiveResources:   active,
		PendingResources:  pending,
	}
	if s.busy {
		st.Phase = PhaseDraining
		for _, e := range s.registry.active() {
			if _, ok := s.drain[e]; ok {
				st.Awaiting = append(st.Awaiting, e.res.ID())
			}
		}
	}
	return st
}

// Resources describes every registered resource in registration order
func (s *Synchronizer) Resources() []ResourceInfo {
	entries := s.registry.all()
	out := make([]ResourceInfo, 0, len(entries))
	for _, e := range entries {
		_, awaiting := s.drain[e]
		out = append(out, ResourceInfo{
			ID:           e.res.ID(),
			Ready:        e.ready,
			Awaiting:     awaiting,
			CurrentTime:  e.res.CurrentTime(),
			PlaybackRate: e.res.PlaybackRate(),
			Duration:     e.res.Duration(),
		})
	}
	return out
}

// Close cancels pending timers and unsubscribes from every resource.
// The synchronizer ignores all requests afterwards.
func (s *Synchronizer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.resync.Cancel()
	s.hub.close()
	for _, e := range s.registry.all() {
		_, _ = s.registry.remove(e.res.ID())
	}
	s.registry.close()
	s.drain = nil
	otel.EndWithOutcome(s.roundSpan, otel.OutcomeAbandoned)
	s.roundSpan = nil
	s.busy = false
}

func (s *Synchronizer) resourceReady(e *entry) {
	res := e.res
	if d := res.Duration(); d > 0 {
		s.duration = d
	}

	active := len(s.registry.active())
	slog.Info("Resource ready",
		"resource_id", res.ID(),
		"duration", s.duration,
		"active_resources", active)
	s.opts.metrics.RecordActiveResources(context.Background(), active)

	if e.onReady != nil {
		e.onReady(res)
	}
	if res.CurrentTime() != s.currentTime {
		s.RequestResync()
	}
}

// resourceFailed leaves e pending; a faulted resource is never admitted
func (s *Synchronizer) resourceFailed(e *entry, err error) {
	slog.Warn("Resource failed to load", "resource_id", e.res.ID(), "error", err)
	s.opts.metrics.RecordResourceFault(context.Background())

	_, span := otel.StartSpan(context.Background(), s.opts.tracer, "playback.resource_failed",
		trace.WithAttributes(otel.AttrResourceID.String(e.res.ID())))
	otel.RecordError(span, err)
	span.End()
}

// ack strikes e from the drain set when it acknowledges a seek.
// Acknowledgements for entries outside the drain set are ignored.
func (s *Synchronizer) ack(e *entry) {
	if _, ok := s.drain[e]; !ok {
		return
	}
	delete(s.drain, e)
	s.maybeComplete()
}

// strike removes e from the drain set without an acknowledgement
func (s *Synchronizer) strike(e *entry) {
	if _, ok := s.drain[e]; !ok {
		return
	}
	delete(s.drain, e)
	if s.roundSpan != nil {
		s.roundSpan.AddEvent("resource removed", trace.WithAttributes(otel.AttrResourceID.String(e.res.ID())))
	}
	s.maybeComplete()
}

func (s *Synchronizer) maybeComplete() {
	if s.busy && len(s.drain) == 0 {
		s.complete()
	}
}

func (s *Synchronizer) complete() {
	t := s.currentTime
	changed := s.changed
	s.drain = nil

	elapsed := s.opts.clock.Since(s.roundStart)
	s.opts.metrics.RecordRound(context.Background(), elapsed, s.roundSize)
	otel.EndWithOutcome(s.roundSpan, otel.OutcomeCompleted)
	s.roundSpan = nil

	if changed {
		s.hub.render(t)
		s.changed = false
	}
	s.busy = false
	if changed {
		s.hub.timeChanged(t)
	}
}
