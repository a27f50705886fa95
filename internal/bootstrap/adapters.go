package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/tbrd-ui/config"
	"github.com/target/tbrd-ui/internal/adapters/memory"
	postgresadapter "github.com/target/tbrd-ui/internal/adapters/postgres"
	redisadapter "github.com/target/tbrd-ui/internal/adapters/redis"
	httpx "github.com/target/tbrd-ui/internal/http"
	"github.com/target/tbrd-ui/internal/ports"
)

// StorageDeps groups what BuildStorage needs.
type StorageDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// StorageBundle is the profile storage plus the resources behind it.
type StorageBundle struct {
	Storage ports.Storage
	// Checks feed GET /readyz.
	Checks map[string]httpx.HealthCheck

	db    *sql.DB
	redis redis.UniversalClient
}

// Close releases the connections opened by BuildStorage.
func (b *StorageBundle) Close() error {
	var errs []error
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BuildStorage connects the configured profile storage backend.
func BuildStorage(ctx context.Context, deps StorageDeps) (*StorageBundle, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &StorageBundle{
			Storage: redisadapter.NewStorage(client, redisadapter.StorageOptions{
				Prefix: cfg.Storage.KeyPrefix,
				TTL:    cfg.Storage.ProfileTTL,
			}),
			Checks: map[string]httpx.HealthCheck{
				"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
			},
			redis: client,
		}, nil

	case config.StorageBackendPostgres:
		db, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err = RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
		return &StorageBundle{
			Storage: postgresadapter.NewStorage(db),
			Checks: map[string]httpx.HealthCheck{
				"postgres": db.PingContext,
			},
			db: db,
		}, nil

	case config.StorageBackendMemory:
		if !cfg.IsDev {
			logger.WarnContext(ctx, "memory profile storage is not shared between replicas and is lost on restart")
		}
		return &StorageBundle{Storage: memory.NewStorage()}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
