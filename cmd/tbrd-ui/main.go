package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/tbrd-ui/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.LogStartupInfo(logger, &cfg)

	app, err := bootstrap.NewApp(ctx, bootstrap.ServiceDeps{Config: &cfg, Logger: logger})
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
