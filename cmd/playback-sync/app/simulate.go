package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	playbackapp "github.com/stacklok/playback-sync/internal/app"
	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/playback"
	"github.com/stacklok/playback-sync/internal/service/inmemory"
)

const (
	defaultSimulationDuration = 5 * time.Second
	simulationReadyTimeout    = 5 * time.Second
	simulationPollInterval    = 10 * time.Millisecond
)

// simulationReport is printed to stdout when a simulation ends
type simulationReport struct {
	State       playback.State          `json:"state"`
	Resources   []playback.ResourceInfo `json:"resources"`
	Renders     int64                   `json:"renders"`
	TimeChanges int64                   `json:"timeChanges"`
	Elapsed     string                  `json:"elapsed"`
}

func newSimulateCmd() *cobra.Command {
	v := newCommandViper()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the player headless for a while and print the final state",
		Long: `Run the configured resources without the control API.

The driver starts immediately unless --paused is set. Renders and time changes
are logged at debug level; a JSON report is printed to stdout at the end.

Examples:
  # Play for ten seconds
  playback-sync simulate --config playback.yaml --for 10s

  # Seek once and watch the round complete
  playback-sync simulate --config playback.yaml --paused --seek 4.5 --for 1s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, v)
		},
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Duration("for", defaultSimulationDuration, "How long to run")
	cmd.Flags().Bool("paused", false, "Do not start the driver")
	cmd.Flags().Float64("seek", -1, "Seek to this time once the player runs (negative to skip)")
	bindFlags(v, cmd, "config", "for", "paused", "seek")

	return cmd
}

func runSimulate(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := v.GetString("config")
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}
	runFor := v.GetDuration("for")
	if runFor <= 0 {
		return fmt.Errorf("--for must be positive, got %s", runFor)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Player.Autoplay = !v.GetBool("paused")

	var renders, timeChanges atomic.Int64
	listener := playback.ListenerFuncs{
		Render: func(t float64) {
			renders.Add(1)
			slog.Debug("Rendered", "time", t)
		},
		TimeChanged: func(t float64) {
			timeChanges.Add(1)
			slog.Debug("Time changed", "time", t)
		},
	}

	app, err := playbackapp.NewPlaybackApp(ctx,
		playbackapp.WithConfig(cfg),
		playbackapp.WithoutHTTPServer(),
		playbackapp.WithPlayerOptions(playback.WithListener(listener)),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	started := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	svc := app.Service()
	if seekTo := v.GetFloat64("seek"); seekTo >= 0 {
		readyCtx, cancel := context.WithTimeout(ctx, simulationReadyTimeout)
		err := initialSeek(readyCtx, svc, len(cfg.Resources), seekTo)
		cancel()
		if err != nil {
			_ = app.Stop(defaultGracefulTimeout)
			<-errCh
			return fmt.Errorf("initial seek failed: %w", err)
		}
		slog.Info("Initial seek requested", "time", seekTo)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case <-time.After(runFor):
	}

	report := simulationReport{Elapsed: time.Since(started).Round(time.Millisecond).String()}
	queryCtx, cancel := context.WithTimeout(context.Background(), simulationReadyTimeout)
	report.State, err = svc.State(queryCtx)
	if err == nil {
		report.Resources, err = svc.Resources(queryCtx)
	}
	cancel()

	if stopErr := app.Stop(defaultGracefulTimeout); stopErr != nil {
		slog.Error("Graceful shutdown failed", "error", stopErr)
	}
	if startErr := <-errCh; startErr != nil {
		return startErr
	}
	if err != nil {
		return fmt.Errorf("failed to read final state: %w", err)
	}

	report.Renders = renders.Load()
	report.TimeChanges = timeChanges.Load()

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return err
}

// initialSeek waits for the configured resources to register, then seeks once
// no round is in flight
func initialSeek(ctx context.Context, svc *inmemory.Service, resources int, t float64) error {
	ticker := time.NewTicker(simulationPollInterval)
	defer ticker.Stop()

	for {
		infos, err := svc.Resources(ctx)
		if err == nil && len(infos) >= resources {
			accepted, err := svc.Seek(ctx, t)
			if err != nil {
				return err
			}
			if accepted {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
