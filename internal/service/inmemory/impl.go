// Package inmemory provides the PlayerService implementation backed by an
// in-process player and simulated resources
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/media"
	"github.com/stacklok/playback-sync/internal/playback"
	"github.com/stacklok/playback-sync/internal/service"
)

// DefaultReadinessTimeout bounds how long CheckReadiness waits for the loop
const DefaultReadinessTimeout = 2 * time.Second

type catalogEntry struct {
	cfg     config.ResourceConfig
	res     *media.Simulated
	managed bool
}

// Service implements service.PlayerService over a playback.Player.
// It owns the simulated resources it creates.
type Service struct {
	player           *playback.Player
	clock            clock.WithDelayedExecution
	readinessTimeout time.Duration

	mu           sync.Mutex
	catalog      map[string]*catalogEntry
	playInterval time.Duration
	playStep     float64
}

var _ service.PlayerService = (*Service)(nil)

// Option is a functional option for configuring the Service
type Option func(*Service)

// WithClock sets the clock simulated resources schedule their latencies on
func WithClock(clk clock.WithDelayedExecution) Option {
	return func(s *Service) {
		s.clock = clk
	}
}

// WithReadinessTimeout sets how long CheckReadiness waits for the player loop
func WithReadinessTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.readinessTimeout = d
		}
	}
}

// WithPlayDefaults sets the tick interval and step used when Play is called with zero values
func WithPlayDefaults(interval time.Duration, step float64) Option {
	return func(s *Service) {
		s.playInterval = interval
		s.playStep = step
	}
}

// New creates a service controlling player
func New(player *playback.Player, opts ...Option) (*Service, error) {
	if player == nil {
		return nil, fmt.Errorf("player is required")
	}

	s := &Service{
		player:           player,
		clock:            clock.RealClock{},
		readinessTimeout: DefaultReadinessTimeout,
		catalog:          make(map[string]*catalogEntry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// CheckReadiness implements PlayerService.CheckReadiness
func (s *Service) CheckReadiness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.readinessTimeout)
	defer cancel()

	if _, err := s.player.State(ctx); err != nil {
		return fmt.Errorf("%w: %v", service.ErrNotReady, err)
	}
	return nil
}

// State implements PlayerService.State
func (s *Service) State(ctx context.Context) (playback.State, error) {
	st, err := s.player.State(ctx)
	if err != nil {
		return playback.State{}, mapPlayerError(err)
	}
	return st, nil
}

// Resources implements PlayerService.Resources
func (s *Service) Resources(ctx context.Context) ([]playback.ResourceInfo, error) {
	infos, err := s.player.Resources(ctx)
	if err != nil {
		return nil, mapPlayerError(err)
	}
	return infos, nil
}

// Play implements PlayerService.Play
func (s *Service) Play(_ context.Context, interval time.Duration, step float64) error {
	if interval < 0 {
		return fmt.Errorf("%w: interval must not be negative, got %s", service.ErrInvalidArgument, interval)
	}
	if step < 0 {
		return fmt.Errorf("%w: step must not be negative, got %v", service.ErrInvalidArgument, step)
	}

	s.mu.Lock()
	if interval == 0 {
		interval = s.playInterval
	}
	if step == 0 {
		step = s.playStep
	}
	s.mu.Unlock()

	return mapPlayerError(s.player.Play(interval, step))
}

// Pause implements PlayerService.Pause
func (s *Service) Pause(_ context.Context) error {
	return mapPlayerError(s.player.Pause())
}

// Seek implements PlayerService.Seek. Negative and non-finite times are rejected.
func (s *Service) Seek(ctx context.Context, t float64) (bool, error) {
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return false, fmt.Errorf("%w: time must be a non-negative number", service.ErrInvalidArgument)
	}
	accepted, err := s.player.Seek(ctx, t)
	if err != nil {
		return false, mapPlayerError(err)
	}
	return accepted, nil
}

// SetPlaybackRate implements PlayerService.SetPlaybackRate
func (s *Service) SetPlaybackRate(_ context.Context, rate float64) error {
	return mapPlayerError(s.player.SetPlaybackRate(rate))
}

// SetDuration implements PlayerService.SetDuration
func (s *Service) SetDuration(_ context.Context, duration float64) error {
	return mapPlayerError(s.player.SetDuration(duration))
}

// RequestResync implements PlayerService.RequestResync
func (s *Service) RequestResync(_ context.Context) error {
	return mapPlayerError(s.player.RequestResync())
}

// AddResource implements PlayerService.AddResource
func (s *Service) AddResource(ctx context.Context, res config.ResourceConfig) (string, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if err := s.addResource(ctx, res, false); err != nil {
		return "", err
	}
	return res.ID, nil
}

// RemoveResource implements PlayerService.RemoveResource
func (s *Service) RemoveResource(ctx context.Context, id string) error {
	if err := s.player.Unregister(ctx, id); err != nil {
		if errors.Is(err, playback.ErrUnknownResource) {
			return fmt.Errorf("%w: %s", service.ErrResourceNotFound, id)
		}
		return mapPlayerError(err)
	}

	s.mu.Lock()
	entry, ok := s.catalog[id]
	delete(s.catalog, id)
	s.mu.Unlock()

	if ok {
		entry.res.Close()
	}
	slog.Info("Resource removed", "resource_id", id)
	return nil
}

func (s *Service) addResource(ctx context.Context, res config.ResourceConfig, managed bool) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.catalog[res.ID]; exists {
		return fmt.Errorf("%w: %s", service.ErrResourceExists, res.ID)
	}

	sim := newSimulated(res, s.clock)
	if err := s.player.Register(ctx, sim, nil, resourceOptions(res)...); err != nil {
		if errors.Is(err, playback.ErrDuplicateResource) {
			return fmt.Errorf("%w: %s", service.ErrResourceExists, res.ID)
		}
		return mapPlayerError(err)
	}

	s.catalog[res.ID] = &catalogEntry{cfg: res, res: sim, managed: managed}
	sim.Load()

	slog.Info("Resource added",
		"resource_id", res.ID,
		"duration", res.Duration,
		"managed", managed,
	)
	return nil
}

// Reconcile makes the configured resources match desired. Resources added
// through AddResource are left alone; configured ones that changed are
// replaced.
func (s *Service) Reconcile(ctx context.Context, desired []config.ResourceConfig) error {
	want := make(map[string]config.ResourceConfig, len(desired))
	for _, res := range desired {
		want[res.ID] = res
	}

	var stale []string
	var missing []config.ResourceConfig
	s.mu.Lock()
	for id, entry := range s.catalog {
		if !entry.managed {
			continue
		}
		if res, ok := want[id]; !ok || !sameResource(res, entry.cfg) {
			stale = append(stale, id)
		}
	}
	for _, res := range desired {
		entry, ok := s.catalog[res.ID]
		if !ok || (entry.managed && !sameResource(res, entry.cfg)) {
			missing = append(missing, res)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range stale {
		if err := s.RemoveResource(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
		}
	}
	for _, res := range missing {
		if err := s.addResource(ctx, res, true); err != nil {
			errs = append(errs, fmt.Errorf("add %s: %w", res.ID, err))
		}
	}

	slog.Info("Resources reconciled",
		"removed", len(stale),
		"added", len(missing),
		"errors", len(errs),
	)
	return errors.Join(errs...)
}

// ApplyPlayerConfig applies the settings that can change while running.
// A playing driver is restarted when its tick interval or step changed.
func (s *Service) ApplyPlayerConfig(ctx context.Context, previous, current config.PlayerConfig) error {
	var errs []error

	if current.PlaybackRate > 0 && current.PlaybackRate != previous.PlaybackRate {
		if err := s.SetPlaybackRate(ctx, current.PlaybackRate); err != nil {
			errs = append(errs, err)
		}
	}
	if current.Duration > 0 && current.Duration != previous.Duration {
		if err := s.SetDuration(ctx, current.Duration); err != nil {
			errs = append(errs, err)
		}
	}

	interval, step := current.GetTickInterval(), current.StepSize
	s.mu.Lock()
	changed := interval != s.playInterval || step != s.playStep
	s.playInterval, s.playStep = interval, step
	s.mu.Unlock()

	if changed {
		st, err := s.State(ctx)
		if err != nil {
			errs = append(errs, err)
		} else if st.Playing {
			if err := s.Pause(ctx); err != nil {
				errs = append(errs, err)
			}
			if err := s.Play(ctx, 0, 0); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// Close stops every scheduled load and seek of the resources the service created
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.catalog {
		entry.res.Close()
		delete(s.catalog, id)
	}
}

func newSimulated(res config.ResourceConfig, clk clock.WithDelayedExecution) *media.Simulated {
	opts := []media.SimulatedOption{
		media.WithClock(clk),
		media.WithStartTime(res.StartTime),
		media.WithSeekLatency(res.GetSeekLatency()),
		media.WithLoadLatency(res.GetLoadLatency()),
	}
	if res.Failure != "" {
		opts = append(opts, media.WithFailure(errors.New(res.Failure)))
	}
	return media.NewSimulated(res.ID, res.Duration, opts...)
}

func resourceOptions(res config.ResourceConfig) []playback.ResourceOption {
	opts := []playback.ResourceOption{playback.WithResourceLoop(res.GetLoop())}
	if res.PlaybackRate > 0 {
		opts = append(opts, playback.WithResourcePlaybackRate(res.PlaybackRate))
	}
	return opts
}

func sameResource(a, b config.ResourceConfig) bool {
	return a.ID == b.ID &&
		a.Duration == b.Duration &&
		a.StartTime == b.StartTime &&
		a.PlaybackRate == b.PlaybackRate &&
		a.GetLoop() == b.GetLoop() &&
		a.SeekLatency == b.SeekLatency &&
		a.LoadLatency == b.LoadLatency &&
		a.Failure == b.Failure
}

// mapPlayerError translates player errors into service errors
func mapPlayerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playback.ErrPlayerStopped):
		return fmt.Errorf("%w: %v", service.ErrNotReady, err)
	case errors.Is(err, playback.ErrInvalidValue):
		return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
	default:
		return err
	}
}
