package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/playback-sync/internal/media"
)

var (
	// ErrPlayerStopped is returned by operations issued after the player stopped
	ErrPlayerStopped = errors.New("player stopped")
	// ErrInvalidValue is returned for a rejected duration or playback rate
	ErrInvalidValue = errors.New("invalid value")
)

// Player runs a Synchronizer and its Driver on one event-loop goroutine.
//
// Mutating operations are posted to the loop and return immediately; their
// effects are visible to any query issued afterwards. Operations posted
// before Start run once the loop starts. Listener callbacks and onReady
// callbacks run on the loop and may call any Player method except the
// blocking ones (State, Resources, Register, Unregister, Seek).
type Player struct {
	queue  *eventQueue
	sync   *Synchronizer
	driver *Driver

	mu         sync.Mutex
	started    bool
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// New creates a player. Call Start to run its loop.
func New(opts ...Option) *Player {
	p := &Player{
		queue: newEventQueue(),
		done:  make(chan struct{}),
	}
	p.sync = NewSynchronizer(func(fn func()) { p.queue.post(fn) }, opts...)
	p.driver = NewDriver(p.sync)
	return p
}

// Start runs the event loop. It blocks until ctx is cancelled or Stop is called.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("player already started")
	}
	p.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancelFunc = cancel
	p.mu.Unlock()

	slog.Info("Starting playback synchronizer")
	defer func() {
		p.shutdown()
		close(p.done)
		slog.Info("Playback synchronizer stopped")
	}()

	for {
		select {
		case <-loopCtx.Done():
			return nil
		case <-p.queue.ready():
			for _, fn := range p.queue.take() {
				fn()
			}
		}
	}
}

// Stop cancels the loop and waits for it to release every timer and
// resource subscription
func (p *Player) Stop() error {
	p.mu.Lock()
	cancel := p.cancelFunc
	p.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping playback synchronizer")
		cancel()
		<-p.done
	}
	return nil
}

// Done is closed once the loop has shut down
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) shutdown() {
	p.queue.close()
	p.driver.Pause()
	p.sync.Close()
}

func (p *Player) post(fn func()) error {
	if !p.queue.post(fn) {
		return ErrPlayerStopped
	}
	return nil
}

// call runs fn on the loop and waits for it
func (p *Player) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := p.post(func() {
		fn()
		close(finished)
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrPlayerStopped
		}
	}
}

// AddListener registers l for render and time change notifications
func (p *Player) AddListener(l Listener) error {
	return p.post(func() { p.sync.AddListener(l) })
}

// AddResource registers res without waiting. Rejections are logged.
func (p *Player) AddResource(res media.Resource, onReady func(media.Resource), opts ...ResourceOption) error {
	return p.post(func() { _ = p.sync.AddResource(res, onReady, opts...) })
}

// RemoveResource unregisters res without waiting
func (p *Player) RemoveResource(res media.Resource) error {
	return p.post(func() { _ = p.sync.RemoveResource(res) })
}

// Register registers res and reports whether it was accepted
func (p *Player) Register(ctx context.Context, res media.Resource, onReady func(media.Resource), opts ...ResourceOption) error {
	var err error
	if callErr := p.call(ctx, func() { err = p.sync.AddResource(res, onReady, opts...) }); callErr != nil {
		return callErr
	}
	return err
}

// Unregister removes the resource with the given id and reports whether it existed
func (p *Player) Unregister(ctx context.Context, id string) error {
	var err error
	if callErr := p.call(ctx, func() { err = p.sync.RemoveResourceByID(id) }); callErr != nil {
		return callErr
	}
	return err
}

// SetCurrentTime requests a round at t. It is dropped if a round is draining.
func (p *Player) SetCurrentTime(t float64) error {
	return p.post(func() { p.sync.SetCurrentTime(t) })
}

// Seek requests a round at t and reports whether it was accepted
func (p *Player) Seek(ctx context.Context, t float64) (bool, error) {
	var accepted bool
	if err := p.call(ctx, func() { accepted = p.sync.SetCurrentTime(t) }); err != nil {
		return false, err
	}
	return accepted, nil
}

// RequestResync schedules a debounced round at the current time
func (p *Player) RequestResync() error {
	return p.post(p.sync.RequestResync)
}

// Play starts the driver. Zero arguments use the configured defaults.
func (p *Player) Play(interval time.Duration, step float64) error {
	return p.post(func() { p.driver.Play(interval, step) })
}

// Pause stops the driver
func (p *Player) Pause() error {
	return p.post(p.driver.Pause)
}

// SetDuration sets the logical duration
func (p *Player) SetDuration(d float64) error {
	if err := validateDuration(d); err != nil {
		return err
	}
	return p.post(func() { _ = p.sync.SetDuration(d) })
}

// SetPlaybackRate sets the playback rate of every resource
func (p *Player) SetPlaybackRate(rate float64) error {
	if err := validatePlaybackRate(rate); err != nil {
		return err
	}
	return p.post(func() { _ = p.sync.SetPlaybackRate(rate) })
}

// State returns a snapshot of the clock once every earlier operation has run
func (p *Player) State(ctx context.Context) (State, error) {
	var st State
	if err := p.call(ctx, func() {
		st = p.sync.State()
	}); err != nil {
		return State{}, err
	}
	return st, nil
}

// Resources lists registered resources once every earlier operation has run
func (p *Player) Resources(ctx context.Context) ([]ResourceInfo, error) {
	var out []ResourceInfo
	if err := p.call(ctx, func() {
		out = p.sync.Resources()
	}); err != nil {
		return nil, err
	}
	return out, nil
}
