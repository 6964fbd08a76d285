// Command clean drops malformed rows from the raw data file and writes the
// date-ordered result to the clean data file.
package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/observability"
)

func main() {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("cleaning failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, span := observability.Tracer().Start(ctx, "clean")
	defer span.End()

	start := time.Now()
	stats, err := dataset.CleanFile(cfg.RawPath(), cfg.CleanPath())
	if err != nil {
		return err
	}

	if stats.Dropped > 0 {
		logger.WarnContext(ctx, "malformed rows dropped", "count", stats.Dropped)
	}
	logger.InfoContext(ctx, "clean dataset written",
		"source", cfg.RawPath(),
		"path", cfg.CleanPath(),
		"read", stats.Read,
		"kept", stats.Kept,
		"duration", time.Since(start),
	)
	return nil
}
