package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Data     DataConfig     `envconfig:"DATA"`
	Logger   LoggerConfig   `envconfig:"LOG"`
	Security SecurityConfig `envconfig:"SECURITY"`
	Forecast ForecastConfig `envconfig:"FORECAST"`
	Tracing  TracingConfig  `envconfig:"TRACING"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"8084" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DataConfig locates the raw and cleaned CSV files. Relative file names are
// resolved against Dir.
type DataConfig struct {
	Dir              string `envconfig:"DIR" default:"data" validate:"required"`
	RawFile          string `envconfig:"RAW_FILE" default:"retail_sales.csv" validate:"required"`
	CleanFile        string `envconfig:"CLEAN_FILE" default:"cleaned_retail_sales.csv" validate:"required"`
	GeneratorProfile string `envconfig:"GENERATOR_PROFILE"`
}

type LoggerConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS    int      `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"gt=0"`
	RateLimitBurst  int      `envconfig:"RATE_LIMIT_BURST" default:"10" validate:"gt=0"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8084"`
	TrustedProxies  []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1"`
}

type ForecastConfig struct {
	DefaultHorizon int           `envconfig:"DEFAULT_HORIZON" default:"90"`
	MinHorizon     int           `envconfig:"MIN_HORIZON" default:"7" validate:"gt=0"`
	MaxHorizon     int           `envconfig:"MAX_HORIZON" default:"180" validate:"gtefield=MinHorizon"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

type TracingConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	Exporter    string  `envconfig:"EXPORTER" default:"stdout" validate:"oneof=stdout none"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"retail-dashboard" validate:"required"`
	SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1" validate:"gte=0,lte=1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Forecast.DefaultHorizon < c.Forecast.MinHorizon || c.Forecast.DefaultHorizon > c.Forecast.MaxHorizon {
		return fmt.Errorf("forecast default horizon %d outside [%d, %d]",
			c.Forecast.DefaultHorizon, c.Forecast.MinHorizon, c.Forecast.MaxHorizon)
	}

	if c.Forecast.Timeout < 0 {
		return fmt.Errorf("forecast timeout must not be negative")
	}

	if filepath.Clean(c.RawPath()) == filepath.Clean(c.CleanPath()) {
		return fmt.Errorf("raw and clean data files must differ, both are %q", c.RawPath())
	}

	for _, origin := range c.Security.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed origin %q must be * or an http(s) URL", origin)
		}
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) RawPath() string { return c.dataPath(c.Data.RawFile) }

func (c *Config) CleanPath() string { return c.dataPath(c.Data.CleanFile) }

func (c *Config) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

// ClampHorizon bounds a requested horizon to the configured range. Zero
// selects the default.
func (f ForecastConfig) ClampHorizon(days int) int {
	if days == 0 {
		return f.DefaultHorizon
	}
	return min(max(days, f.MinHorizon), f.MaxHorizon)
}

// ValidHorizon reports whether days lies inside the configured range.
func (f ForecastConfig) ValidHorizon(days int) bool {
	return days >= f.MinHorizon && days <= f.MaxHorizon
}
