package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/playback-sync/internal/api"
	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/playback"
	"github.com/stacklok/playback-sync/internal/service"
	"github.com/stacklok/playback-sync/internal/service/inmemory"
	"github.com/stacklok/playback-sync/internal/telemetry"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultReloadTimeout   = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// PlaybackAppOptions is a function that configures the playback app builder
type PlaybackAppOptions func(*playbackAppConfig) error

// playbackAppConfig collects everything NewPlaybackApp needs.
// Zero values fall back to production defaults.
type playbackAppConfig struct {
	config     *config.Config
	configPath string

	// HTTP server options
	address        string
	headless       bool
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Player options
	clock       clock.WithDelayedExecution
	playerOpts  []playback.Option
	readinessTO time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...PlaybackAppOptions) (*playbackAppConfig, error) {
	cfg := &playbackAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
		clock:          clock.RealClock{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewPlaybackApp builds the player, the control service and, unless headless,
// the HTTP server. Nothing runs until Start is called.
func NewPlaybackApp(
	ctx context.Context,
	opts ...PlaybackAppOptions,
) (*PlaybackApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	app := &PlaybackApp{components: &AppComponents{}}

	// The manager loads the file and owns it from here on
	if cfg.configPath != "" {
		manager, err := config.NewManager(cfg.configPath, config.WithReloadHandler(app.onReload))
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		app.components.ConfigManager = manager
		cfg.config = manager.GetConfig()
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}

	player, err := buildPlayer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build player: %w", err)
	}

	svc, err := buildServiceComponents(cfg, player)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	var httpServer *http.Server
	if !cfg.headless {
		httpServer, err = buildHTTPServer(ctx, cfg, svc)
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP server: %w", err)
		}
	}

	appCtx, cancel := context.WithCancel(ctx)

	app.config = cfg.config
	app.components.Player = player
	app.components.Service = svc
	app.httpServer = httpServer
	app.ctx = appCtx
	app.cancelFunc = cancel
	return app, nil
}

// WithConfig sets a static configuration
func WithConfig(c *config.Config) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithConfigFile loads the configuration from path and reloads it whenever
// the file changes. It takes precedence over WithConfig.
func WithConfigFile(path string) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		if path == "" {
			return fmt.Errorf("config path cannot be empty")
		}
		cfg.configPath = path
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host, port := parts[0], parts[1]

		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithoutHTTPServer runs the player without the control API
func WithoutHTTPServer() PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.headless = true
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithClock sets the clock driving the player and the simulated resources
func WithClock(clk clock.WithDelayedExecution) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		if clk == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		cfg.clock = clk
		return nil
	}
}

// WithPlayerOptions appends options applied after the configured ones,
// typically listeners
func WithPlayerOptions(opts ...playback.Option) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.playerOpts = append(cfg.playerOpts, opts...)
		return nil
	}
}

// WithReadinessTimeout bounds the readiness probe
func WithReadinessTimeout(d time.Duration) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.readinessTO = d
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and playback metrics
func WithMeterProvider(mp metric.MeterProvider) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP and round spans
func WithTracerProvider(tp trace.TracerProvider) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) PlaybackAppOptions {
	return func(cfg *playbackAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildPlayer creates the player from the player section of the configuration
func buildPlayer(b *playbackAppConfig) (*playback.Player, error) {
	slog.Info("Initializing player")

	pc := b.config.Player
	opts := []playback.Option{
		playback.WithClock(b.clock),
		playback.WithTickInterval(pc.GetTickInterval()),
		playback.WithStepSize(pc.StepSize),
		playback.WithDebounceWindow(pc.GetDebounceWindow()),
		playback.WithThrottleWindow(pc.GetThrottleWindow()),
		playback.WithPlaybackRate(pc.PlaybackRate),
	}

	if b.meterProvider != nil {
		playbackMetrics, err := telemetry.NewPlaybackMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create playback metrics: %w", err)
		}
		if playbackMetrics != nil {
			opts = append(opts, playback.WithMetrics(playbackMetrics))
			slog.Info("Playback metrics enabled")
		}
	}

	if b.tracerProvider != nil {
		opts = append(opts, playback.WithTracer(b.tracerProvider.Tracer(telemetry.PlaybackTracerName)))
	}

	opts = append(opts, b.playerOpts...)
	return playback.New(opts...), nil
}

// buildServiceComponents wraps the player in the control service
func buildServiceComponents(b *playbackAppConfig, player *playback.Player) (*inmemory.Service, error) {
	slog.Info("Initializing service components")

	pc := b.config.Player
	svcOpts := []inmemory.Option{
		inmemory.WithClock(b.clock),
		inmemory.WithPlayDefaults(pc.GetTickInterval(), pc.StepSize),
	}
	if b.readinessTO > 0 {
		svcOpts = append(svcOpts, inmemory.WithReadinessTimeout(b.readinessTO))
	}

	svc, err := inmemory.New(player, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create player service: %w", err)
	}
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *playbackAppConfig,
	svc service.PlayerService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics go first so that every request is counted
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
		slog.Info("HTTP tracing middleware enabled")
	}

	router := api.NewServer(svc,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(b.metricsHandler),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
