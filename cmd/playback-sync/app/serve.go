package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	playbackapp "github.com/stacklok/playback-sync/internal/app"
	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/telemetry"
	"github.com/stacklok/playback-sync/internal/versions"
)

const (
	defaultGracefulTimeout   = 30 * time.Second // Kubernetes-friendly shutdown time
	telemetryShutdownTimeout = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	v := newCommandViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the player and its control API",
		Long: `Start the playback synchronizer with an HTTP control API.

The configuration file (--config) lists the player settings and the simulated
resources to register at startup. The file is watched: resources and player
settings are reconciled when it changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on (defaults to server.address or :8080)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	bindFlags(v, cmd, "address", "config")

	return cmd
}

// newCommandViper returns a viper instance reading PLAYBACK_SYNC_* variables
func newCommandViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
		}
	}
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := v.GetString("config")
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	// telemetry is fixed for the process lifetime, only resources and player settings reload
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.Version
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	opts := []playbackapp.PlaybackAppOptions{
		playbackapp.WithConfigFile(configPath),
		playbackapp.WithMeterProvider(tel.MeterProvider()),
		playbackapp.WithTracerProvider(tel.TracerProvider()),
		playbackapp.WithMetricsHandler(tel.MetricsHandler()),
	}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, playbackapp.WithAddress(address))
	}

	app, err := playbackapp.NewPlaybackApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	slog.Info("Starting playback synchronizer",
		"config", configPath,
		"resources", len(app.GetConfig().Resources),
		"version", versions.Version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := app.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	return <-errCh
}
