// Command generate writes the synthetic raw retail series to the configured
// raw data file.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/generator"
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
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, span := observability.Tracer().Start(ctx, "generate")
	defer span.End()

	gcfg := generator.DefaultConfig()
	if path := cfg.Data.GeneratorProfile; path != "" {
		var err error
		if gcfg, err = generator.LoadProfile(path, gcfg); err != nil {
			return err
		}
		logger.InfoContext(ctx, "generator profile loaded", "path", path)
	}

	start := time.Now()
	ds, err := generator.Generate(gcfg)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	out := cfg.RawPath()
	if err := generator.WriteFile(out, ds); err != nil {
		return err
	}

	logger.InfoContext(ctx, "raw dataset written",
		"path", out,
		"rows", len(ds.Records),
		"seed", gcfg.Seed,
		"start_date", gcfg.StartDate.Format("2006-01-02"),
		"duration", time.Since(start),
	)
	return nil
}
