package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/target/tbrd-ui/config"
	"github.com/target/tbrd-ui/internal/observability/statsd"
	"github.com/target/tbrd-ui/internal/observability/tracing"
	"github.com/target/tbrd-ui/internal/service"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// App is the assembled portal: storage, auth, observability and the HTTP server.
type App struct {
	Config *config.AppConfig
	Auth   *service.AuthService
	Server *http.Server

	storage        *StorageBundle
	metrics        *statsd.Client
	shutdownTraces tracing.ShutdownFunc
	logger         *slog.Logger
}

// buildMetrics returns nil when metrics are disabled or the client cannot start.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     "tbrd_ui",
		Logger:     logger,
		GlobalTags: map[string]string{"service": cfg.ServiceName},
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// NewApp connects infrastructure and wires every service. On error, whatever
// was already opened is closed again.
func NewApp(ctx context.Context, deps ServiceDeps) (app *App, err error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app = &App{Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			err = errors.Join(err, app.Close(context.WithoutCancel(ctx)))
			app = nil
		}
	}()

	app.shutdownTraces, err = tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Observability.Tracing.Enabled,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		ServiceName: cfg.Observability.ServiceName,
		Version:     Version,
	})
	if err != nil {
		return app, fmt.Errorf("setup tracing: %w", err)
	}

	app.metrics = buildMetrics(logger, cfg.Observability)
	// A nil *statsd.Client must not become a non-nil Sink.
	var sink statsd.Sink
	if app.metrics != nil {
		sink = app.metrics
	}

	app.storage, err = BuildStorage(ctx, StorageDeps{Config: cfg, Logger: logger})
	if err != nil {
		return app, err
	}

	app.Auth, err = BuildAuthService(ctx, AuthConfig{
		Auth:    cfg.Auth,
		Storage: app.storage.Storage,
		Metrics: sink,
		Logger:  logger,
	})
	if err != nil {
		return app, err
	}

	app.Server, err = BuildHTTPServer(HTTPServerConfig{
		Config:  cfg,
		Auth:    app.Auth,
		Metrics: sink,
		Checks:  app.storage.Checks,
		Logger:  logger,
	})
	if err != nil {
		return app, err
	}
	return app, nil
}

// Run serves until SIGINT/SIGTERM or a server failure, then releases resources.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ServeHTTP(gctx, a.Server, a.logger) })

	runErr := g.Wait()
	closeErr := a.Close(context.WithoutCancel(ctx))
	return errors.Join(runErr, closeErr)
}

// Close flushes telemetry and closes storage connections. Safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.metrics != nil {
		if err := a.metrics.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statsd: %w", err))
		}
	}
	if a.shutdownTraces != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := a.shutdownTraces(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}
