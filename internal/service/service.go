// Package service provides the operations the control API exposes over a running player
package service

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/playback"
)

var (
	// ErrResourceNotFound is returned when no resource has the requested id
	ErrResourceNotFound = errors.New("resource not found")
	// ErrResourceExists is returned when a resource id is already registered
	ErrResourceExists = errors.New("resource already exists")
	// ErrInvalidArgument is returned when a request carries an invalid value
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotReady is returned when the player loop does not answer
	ErrNotReady = errors.New("player not ready")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go PlayerService

// PlayerService defines the control operations over a player
type PlayerService interface {
	// CheckReadiness checks that the player loop is running and answering
	CheckReadiness(ctx context.Context) error

	// State returns the synchronizer clock
	State(ctx context.Context) (playback.State, error)

	// Resources lists every registered resource
	Resources(ctx context.Context) ([]playback.ResourceInfo, error)

	// Play starts the driver; zero values use the configured defaults
	Play(ctx context.Context, interval time.Duration, step float64) error

	// Pause stops the driver
	Pause(ctx context.Context) error

	// Seek requests a round at t and reports whether it was accepted
	// or dropped because a round is in flight
	Seek(ctx context.Context, t float64) (bool, error)

	// SetPlaybackRate sets the rate of every resource that does not pin its own
	SetPlaybackRate(ctx context.Context, rate float64) error

	// SetDuration sets the logical duration
	SetDuration(ctx context.Context, duration float64) error

	// RequestResync schedules a debounced round at the current time
	RequestResync(ctx context.Context) error

	// AddResource creates, registers and loads a simulated resource.
	// An empty id is replaced with a generated one.
	AddResource(ctx context.Context, res config.ResourceConfig) (string, error)

	// RemoveResource unregisters and closes the resource with the given id
	RemoveResource(ctx context.Context, id string) error
}
