package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/dataset"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, run(t.Context(), cfg, logger))

	table, err := dataset.ReadFile(cfg.RawPath())
	require.NoError(t, err)
	assert.Len(t, table.Records(), 730)
	assert.Zero(t, table.Dropped())

	first, err := os.ReadFile(cfg.RawPath())
	require.NoError(t, err)

	require.NoError(t, run(t.Context(), cfg, logger))
	second, err := os.ReadFile(cfg.RawPath())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "rerun must reproduce the file byte for byte")
}

func TestRun_Profile(t *testing.T) {
	cfg := testConfig(t)
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("days: 10\nseed: 7\nstart_date: \"2024-02-01\"\n"), 0o644))
	cfg.Data.GeneratorProfile = profile

	require.NoError(t, run(t.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))

	table, err := dataset.ReadFile(cfg.RawPath())
	require.NoError(t, err)
	records := table.Records()
	require.Len(t, records, 10)
	assert.Equal(t, "2024-02-01", records[0].Date.Format(dataset.DateLayout))
}

func TestRun_BadProfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.GeneratorProfile = filepath.Join(t.TempDir(), "missing.yaml")

	assert.Error(t, run(t.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))
}
