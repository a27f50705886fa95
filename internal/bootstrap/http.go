package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/target/tbrd-ui/config"
	"github.com/target/tbrd-ui/internal/apiclient"
	httpx "github.com/target/tbrd-ui/internal/http"
	"github.com/target/tbrd-ui/internal/observability/statsd"
	"github.com/target/tbrd-ui/internal/service"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config  *config.AppConfig
	Auth    *service.AuthService
	Metrics statsd.Sink
	Checks  map[string]httpx.HealthCheck
	Logger  *slog.Logger
}

// BuildHTTPServer builds the backend client, the router and the server around them.
// The server is not started.
func BuildHTTPServer(cfg HTTPServerConfig) (*http.Server, error) {
	if cfg.Config == nil || cfg.Auth == nil {
		return nil, errors.New("config and auth service are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	api, err := apiclient.New(apiclient.Config{
		BaseURL:  appCfg.API.BaseURL,
		Timeout:  appCfg.API.Timeout,
		Provider: cfg.Auth.Provider(),
		Logger:   logger,
		Metrics:  cfg.Metrics,
		Tracer:   otel.Tracer("github.com/target/tbrd-ui/internal/apiclient"),
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	handler, err := httpx.NewRouter(httpx.RouterServices{
		Auth:           cfg.Auth,
		API:            api,
		CookieDomain:   appCfg.HTTP.CookieDomain,
		ProfileMaxAge:  appCfg.Storage.ProfileTTL,
		PostLogoutURL:  appCfg.Auth.OAuth.PostLogoutRedirectURL,
		MaxUploadBytes: appCfg.HTTP.MaxUploadBytes,
		HealthChecks:   cfg.Checks,
		IsDev:          appCfg.IsDev,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// ServeHTTP runs server until ctx is cancelled, then drains in-flight requests.
func ServeHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
