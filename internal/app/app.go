// Package app provides application lifecycle management for the playback synchronizer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/service/inmemory"
)

// PlaybackApp encapsulates all components needed to run the synchronizer.
// It provides lifecycle management and graceful shutdown capabilities
type PlaybackApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu           sync.RWMutex
	shutdownOnce sync.Once
	shutdownErr  error
}

// Start runs the player loop, the HTTP server and the config watcher.
// It blocks until Stop is called or one of them fails.
func (app *PlaybackApp) Start() error {
	g, gctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		if err := app.components.Player.Start(gctx); err != nil {
			return fmt.Errorf("player failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.bootstrap(gctx)
		return nil
	})

	if manager := app.components.ConfigManager; manager != nil {
		g.Go(func() error {
			defer func() {
				if err := manager.Close(); err != nil {
					slog.Warn("Failed to close config watcher", "error", err)
				}
			}()
			if err := manager.WatchConfig(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("config watcher failed: %w", err)
			}
			return nil
		})
	}

	if app.httpServer != nil {
		g.Go(func() error {
			slog.Info("Server listening", "address", app.httpServer.Addr)
			if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		})

		// a failing component takes the server down with it
		g.Go(func() error {
			<-gctx.Done()
			if err := app.shutdownHTTP(defaultShutdownTimeout); err != nil {
				slog.Error("HTTP server shutdown failed", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	app.components.Service.Close()
	return err
}

// bootstrap applies the initial player settings and resources once the loop runs
func (app *PlaybackApp) bootstrap(ctx context.Context) {
	svc := app.components.Service
	cfg := app.GetConfig()

	if err := svc.ApplyPlayerConfig(ctx, config.PlayerConfig{}, cfg.Player); err != nil {
		slog.Warn("Failed to apply player configuration", "error", err)
	}
	if err := svc.Reconcile(ctx, cfg.Resources); err != nil {
		slog.Warn("Some configured resources could not be added", "error", err)
	}
	if cfg.Player.Autoplay {
		if err := svc.Play(ctx, 0, 0); err != nil {
			slog.Warn("Autoplay failed", "error", err)
			return
		}
		slog.Info("Autoplay started")
	}
}

// onReload applies a reloaded configuration to the running player.
// Only the resources and the player settings change; the address and telemetry
// need a restart.
func (app *PlaybackApp) onReload(previous, current *config.Config) {
	svc := app.components.Service
	if svc == nil || app.ctx == nil {
		return
	}

	ctx, cancel := context.WithTimeout(app.ctx, defaultReloadTimeout)
	defer cancel()

	if err := svc.Reconcile(ctx, current.Resources); err != nil {
		slog.Error("Failed to reconcile resources after reload", "error", err)
	}
	if err := svc.ApplyPlayerConfig(ctx, previous.Player, current.Player); err != nil {
		slog.Error("Failed to apply player configuration after reload", "error", err)
	}

	app.mu.Lock()
	app.config = current
	app.mu.Unlock()
}

// Stop gracefully stops the application with the given timeout.
// It shuts down the HTTP server and then stops the player loop and the config watcher.
func (app *PlaybackApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down...")

	var errs []error
	if app.httpServer != nil {
		if err := app.shutdownHTTP(timeout); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err := app.components.Player.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop player: %w", err))
	}

	slog.Info("Shutdown complete")
	return errors.Join(errs...)
}

func (app *PlaybackApp) shutdownHTTP(timeout time.Duration) error {
	app.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		app.shutdownErr = app.httpServer.Shutdown(ctx)
	})
	return app.shutdownErr
}

// GetConfig returns the application configuration
func (app *PlaybackApp) GetConfig() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// GetHTTPServer returns the HTTP server, nil when headless
func (app *PlaybackApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Service returns the control service driving the player
func (app *PlaybackApp) Service() *inmemory.Service {
	return app.components.Service
}
