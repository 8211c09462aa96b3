package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Manager provides thread-safe, read-only configuration management.
// The file is never modified by the application; updates come from outside
// (volume mounts, ConfigMaps, editors) and are validated before they apply.
// An invalid update leaves the last good configuration active.
type Manager interface {
	// GetConfig safely retrieves the current configuration
	GetConfig() *Config

	// ReloadConfig reads the latest configuration from disk and applies it if valid
	ReloadConfig() error

	// WatchConfig reloads the configuration whenever the file changes.
	// Blocks until context is cancelled.
	WatchConfig(ctx context.Context) error

	// Close releases the file watcher resources
	Close() error
}

// Validator validates a configuration beyond Config.Validate
type Validator interface {
	Validate(config *Config) error
}

// ReloadHandler is called with the previous and the new configuration after
// every successful reload
type ReloadHandler func(previous, current *Config)

type defaultValidator struct{}

// Validate delegates to the Config's own Validate method
func (*defaultValidator) Validate(config *Config) error {
	return config.Validate()
}

type manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	validator  Validator
	onReload   []ReloadHandler
	watcher    *fsnotify.Watcher
	watcherMu  sync.Mutex
}

// ManagerOption customizes a Manager
type ManagerOption func(*manager)

// WithValidator sets a custom validator for the manager
func WithValidator(validator Validator) ManagerOption {
	return func(m *manager) {
		m.validator = validator
	}
}

// WithReloadHandler registers fn to run after each successful reload
func WithReloadHandler(fn ReloadHandler) ManagerOption {
	return func(m *manager) {
		m.onReload = append(m.onReload, fn)
	}
}

// NewManager creates a Manager for the given configuration file.
// It loads and validates the initial configuration.
func NewManager(configPath string, opts ...ManagerOption) (Manager, error) {
	m := &manager{
		configPath: configPath,
		validator:  &defaultValidator{},
	}

	for _, opt := range opts {
		opt(m)
	}

	cfg, err := m.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}
	m.config = cfg

	return m, nil
}

// GetConfig returns a shallow copy of the current configuration
func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// ReloadConfig reads the configuration file and applies it if valid
func (m *manager) ReloadConfig() error {
	cfg, err := m.load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	previous := m.config
	m.config = cfg
	m.mu.Unlock()

	slog.Info("Configuration reloaded", "path", m.configPath, "resources", len(cfg.Resources))
	for _, fn := range m.onReload {
		fn(previous, cfg)
	}
	return nil
}

func (m *manager) load() (*Config, error) {
	cfg, err := LoadConfig(WithConfigPath(m.configPath))
	if err != nil {
		return nil, err
	}
	if err := m.validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// WatchConfig observes the configuration file for external changes.
// This method blocks until the context is cancelled.
func (m *manager) WatchConfig(ctx context.Context) error {
	m.watcherMu.Lock()
	if m.watcher != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("config watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	m.watcher = watcher
	m.watcherMu.Unlock()

	if err := watcher.Add(m.configPath); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", m.configPath, err)
	}

	slog.Info("Started watching configuration file", "path", m.configPath)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping config file watcher")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				slog.Info("External config update detected, reloading", "path", m.configPath)

				if err := m.ReloadConfig(); err != nil {
					// previous config remains active
					slog.Error("Failed to reload config", "error", err)
				}
			}

			// atomic replacements remove the watched file
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				slog.Debug("Config file replaced, re-watching", "path", m.configPath)
				_ = watcher.Add(m.configPath)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// Close releases the file watcher, if active
func (m *manager) Close() error {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		m.watcher = nil
		slog.Info("Config watcher closed")
	}

	return nil
}
