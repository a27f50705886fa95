package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/tbrd-ui/config"
	"github.com/target/tbrd-ui/internal/adapters/devauth"
	"github.com/target/tbrd-ui/internal/adapters/idpcache"
	"github.com/target/tbrd-ui/internal/adapters/oidc"
	"github.com/target/tbrd-ui/internal/observability/statsd"
	"github.com/target/tbrd-ui/internal/ports"
	"github.com/target/tbrd-ui/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth    config.AuthConfig
	Storage ports.Storage
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// BuildIdentityProvider creates the identity provider for the configured auth mode.
// Account and token state is cached per profile in cfg.Storage.
//
//nolint:ireturn // the mode picks the concrete provider at runtime.
func BuildIdentityProvider(ctx context.Context, cfg AuthConfig) (ports.IdentityProvider, error) {
	if cfg.Storage == nil {
		return nil, errors.New("profile storage is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := idpcache.New(cfg.Storage, logger)

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		dev := cfg.Auth.DevAuth
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:   dev.UserID,
			Name:     dev.Name,
			Username: dev.Username,
			Scopes:   cfg.Auth.OAuth.TokenScopes,
			Cache:    cache,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		logger.Warn("mock authentication enabled; do not use in production", "user_id", dev.UserID)
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Authority:    oauth.Authority,
			TokenScopes:  oauth.TokenScopes,
			Cache:        cache,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

// BuildAuthService wires the identity provider and the guest session store.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	prov, err := BuildIdentityProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.NewAuthService(service.AuthServiceOptions{
		Provider:     prov,
		Guests:       service.NewGuestSessionStore(cfg.Storage, cfg.Logger),
		GuestEnabled: cfg.Auth.GuestEnabled,
		Logger:       cfg.Logger,
		Metrics:      cfg.Metrics,
	}), nil
}
