// Package config provides configuration loading and validation for the playback synchronizer.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/playback-sync/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables read through viper
const EnvPrefix = "PLAYBACK_SYNC"

// DefaultAddress is the HTTP listen address used when none is configured
const DefaultAddress = ":8080"

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Player    PlayerConfig      `yaml:"player"`
	Resources []ResourceConfig  `yaml:"resources,omitempty"`
	Server    *ServerConfig     `yaml:"server,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// PlayerConfig defines the synchronizer and driver settings.
// Zero values fall back to the synchronizer defaults.
type PlayerConfig struct {
	// TickInterval is the driver tick interval (e.g., "500ms")
	TickInterval string `yaml:"tickInterval,omitempty"`

	// StepSize is the logical time advanced per tick
	StepSize float64 `yaml:"stepSize,omitempty"`

	// DebounceWindow coalesces resync requests (e.g., "100ms")
	DebounceWindow string `yaml:"debounceWindow,omitempty"`

	// ThrottleWindow bounds time change notifications (e.g., "300ms")
	ThrottleWindow string `yaml:"throttleWindow,omitempty"`

	// PlaybackRate is applied to every resource that does not pin its own
	PlaybackRate float64 `yaml:"playbackRate,omitempty"`

	// Duration is the initial logical duration, replaced once a resource reports its own
	Duration float64 `yaml:"duration,omitempty"`

	// Autoplay starts the driver as soon as the player runs
	Autoplay bool `yaml:"autoplay,omitempty"`
}

// ResourceConfig defines one simulated resource
type ResourceConfig struct {
	// ID identifies the resource; it must be unique
	ID string `yaml:"id" json:"id"`

	// Duration is the resource duration in seconds
	Duration float64 `yaml:"duration" json:"duration"`

	// StartTime is the resource's native time before the first seek
	StartTime float64 `yaml:"startTime,omitempty" json:"startTime,omitempty"`

	// PlaybackRate pins the resource rate instead of following the player
	PlaybackRate float64 `yaml:"playbackRate,omitempty" json:"playbackRate,omitempty"`

	// Loop overrides looped playback, which is on by default
	Loop *bool `yaml:"loop,omitempty" json:"loop,omitempty"`

	// SeekLatency delays every seek acknowledgement (e.g., "20ms")
	SeekLatency string `yaml:"seekLatency,omitempty" json:"seekLatency,omitempty"`

	// LoadLatency delays readiness (e.g., "1s")
	LoadLatency string `yaml:"loadLatency,omitempty" json:"loadLatency,omitempty"`

	// Failure makes the resource report this error instead of becoming ready
	Failure string `yaml:"failure,omitempty" json:"failure,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address; the --address flag takes precedence
	Address string `yaml:"address,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the configured listen address, using DefaultAddress if not specified
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if err := c.Player.validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}

	ids := make(map[string]bool)
	for i, res := range c.Resources {
		if res.ID != "" {
			if ids[res.ID] {
				errs = append(errs, fmt.Errorf("resources[%d]: duplicate resource id '%s'", i, res.ID))
			}
			ids[res.ID] = true
		}
		if err := res.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("resources[%d] (%s): %w", i, res.ID, err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (p *PlayerConfig) validate() error {
	var errs []error

	if err := validateDuration("tickInterval", p.TickInterval); err != nil {
		errs = append(errs, err)
	}
	if err := validateDuration("debounceWindow", p.DebounceWindow); err != nil {
		errs = append(errs, err)
	}
	if err := validateDuration("throttleWindow", p.ThrottleWindow); err != nil {
		errs = append(errs, err)
	}

	if err := validateNonNegative("stepSize", p.StepSize); err != nil {
		errs = append(errs, err)
	}
	if err := validateNonNegative("playbackRate", p.PlaybackRate); err != nil {
		errs = append(errs, err)
	}
	if err := validateNonNegative("duration", p.Duration); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks a single resource definition
func (r *ResourceConfig) Validate() error {
	var errs []error

	if r.ID == "" {
		errs = append(errs, fmt.Errorf("id is required"))
	}
	if err := validateNonNegative("duration", r.Duration); err != nil {
		errs = append(errs, err)
	}
	if err := validateNonNegative("startTime", r.StartTime); err != nil {
		errs = append(errs, err)
	}
	if err := validateNonNegative("playbackRate", r.PlaybackRate); err != nil {
		errs = append(errs, err)
	}
	if err := validateDuration("seekLatency", r.SeekLatency); err != nil {
		errs = append(errs, err)
	}
	if err := validateDuration("loadLatency", r.LoadLatency); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateDuration(name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '100ms', '1s'): %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative, got %s", name, value)
	}
	return nil
}

func validateNonNegative(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return fmt.Errorf("%s must be a finite, non-negative number, got %v", name, value)
	}
	return nil
}

// parseDuration returns the parsed value, or zero for an empty or invalid string.
// Values are checked by Validate before they are read.
func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

// GetTickInterval returns the driver tick interval, zero when unset
func (p *PlayerConfig) GetTickInterval() time.Duration {
	return parseDuration(p.TickInterval)
}

// GetDebounceWindow returns the resync debounce window, zero when unset
func (p *PlayerConfig) GetDebounceWindow() time.Duration {
	return parseDuration(p.DebounceWindow)
}

// GetThrottleWindow returns the notification throttle window, zero when unset
func (p *PlayerConfig) GetThrottleWindow() time.Duration {
	return parseDuration(p.ThrottleWindow)
}

// GetSeekLatency returns the seek acknowledgement latency, zero when unset
func (r *ResourceConfig) GetSeekLatency() time.Duration {
	return parseDuration(r.SeekLatency)
}

// GetLoadLatency returns the load latency, zero when unset
func (r *ResourceConfig) GetLoadLatency() time.Duration {
	return parseDuration(r.LoadLatency)
}

// GetLoop returns whether the resource loops, true when unset
func (r *ResourceConfig) GetLoop() bool {
	if r.Loop == nil {
		return true
	}
	return *r.Loop
}
