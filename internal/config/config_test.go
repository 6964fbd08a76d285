package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, filepath.Join("data", "retail_sales.csv"), cfg.RawPath())
	assert.Equal(t, filepath.Join("data", "cleaned_retail_sales.csv"), cfg.CleanPath())
	assert.Equal(t, 90, cfg.Forecast.DefaultHorizon)
	assert.Equal(t, 7, cfg.Forecast.MinHorizon)
	assert.Equal(t, 180, cfg.Forecast.MaxHorizon)
	assert.Equal(t, []string{"http://localhost:8084"}, cfg.Security.AllowedOrigins)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DATA_CLEAN_FILE", "clean.csv")
	t.Setenv("FORECAST_DEFAULT_HORIZON", "30")
	t.Setenv("FORECAST_TIMEOUT", "5s")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, filepath.Join(dir, "clean.csv"), cfg.CleanPath())
	assert.Equal(t, 30, cfg.Forecast.DefaultHorizon)
	assert.Equal(t, 5*time.Second, cfg.Forecast.Timeout)
	assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_AbsoluteDataFile(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "raw.csv")
	t.Setenv("DATA_RAW_FILE", abs)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.RawPath())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port too high", map[string]string{"SERVER_PORT": "70000"}},
		{"port not a number", map[string]string{"SERVER_PORT": "http"}},
		{"zero read timeout", map[string]string{"SERVER_READ_TIMEOUT": "0s"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero rps", map[string]string{"SECURITY_RATE_LIMIT_RPS": "0"}},
		{"default horizon above max", map[string]string{"FORECAST_DEFAULT_HORIZON": "365"}},
		{"max below min", map[string]string{"FORECAST_MIN_HORIZON": "30", "FORECAST_MAX_HORIZON": "10", "FORECAST_DEFAULT_HORIZON": "20"}},
		{"same data files", map[string]string{"DATA_RAW_FILE": "x.csv", "DATA_CLEAN_FILE": "x.csv"}},
		{"bad exporter", map[string]string{"TRACING_EXPORTER": "jaeger"}},
		{"sample ratio", map[string]string{"TRACING_SAMPLE_RATIO": "2"}},
		{"bad origin", map[string]string{"SECURITY_ALLOWED_ORIGINS": "localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestForecastConfig_Horizon(t *testing.T) {
	f := ForecastConfig{DefaultHorizon: 90, MinHorizon: 7, MaxHorizon: 180}

	assert.Equal(t, 90, f.ClampHorizon(0))
	assert.Equal(t, 7, f.ClampHorizon(1))
	assert.Equal(t, 180, f.ClampHorizon(1000))
	assert.Equal(t, 30, f.ClampHorizon(30))

	assert.True(t, f.ValidHorizon(7))
	assert.True(t, f.ValidHorizon(180))
	assert.False(t, f.ValidHorizon(6))
	assert.False(t, f.ValidHorizon(181))
}
