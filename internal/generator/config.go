package generator

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"retail-dashboard/internal/dataset"
)

var ErrInvalidConfig = errors.New("invalid generator config")

// Choice is one value of a categorical field with its draw weight.
type Choice struct {
	Value  string  `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

type Config struct {
	StartDate time.Time `yaml:"-"`
	Days      int       `yaml:"days"`
	Seed      int64     `yaml:"seed"`

	BaseSales       float64 `yaml:"base_sales"`
	TrendMax        float64 `yaml:"trend_max"`
	WeeklyAmplitude float64 `yaml:"weekly_amplitude"`
	YearlyAmplitude float64 `yaml:"yearly_amplitude"`
	SalesNoise      float64 `yaml:"sales_noise"`
	SalesFloor      float64 `yaml:"sales_floor"`

	StockBase       float64 `yaml:"stock_base"`
	StockSalesRatio float64 `yaml:"stock_sales_ratio"`
	StockNoise      float64 `yaml:"stock_noise"`
	StockFloor      float64 `yaml:"stock_floor"`

	PriceBase   float64 `yaml:"price_base"`
	PricePeriod float64 `yaml:"price_period"`
	PriceNoise  float64 `yaml:"price_noise"`

	Categories   []Choice `yaml:"categories"`
	Regions      []Choice `yaml:"regions"`
	PaymentModes []Choice `yaml:"payment_modes"`
}

func DefaultConfig() Config {
	return Config{
		StartDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:      730,
		Seed:      42,

		BaseSales:       500,
		TrendMax:        300,
		WeeklyAmplitude: 70,
		YearlyAmplitude: 150,
		SalesNoise:      40,
		SalesFloor:      50,

		StockBase:       1200,
		StockSalesRatio: 0.6,
		StockNoise:      60,
		StockFloor:      100,

		PriceBase:   25,
		PricePeriod: 45,
		PriceNoise:  0.8,

		Categories: []Choice{
			{"Electronics", 0.2},
			{"Clothing", 0.4},
			{"Furniture", 0.15},
			{"Home Decor", 0.1},
			{"Accessories", 0.15},
		},
		Regions: []Choice{
			{"Maharashtra", 0.3},
			{"Madhya Pradesh", 0.25},
			{"Uttar Pradesh", 0.2},
			{"Delhi", 0.15},
			{"Karnataka", 0.1},
		},
		PaymentModes: []Choice{
			{"UPI", 0.3},
			{"Credit Card", 0.2},
			{"Debit Card", 0.15},
			{"COD", 0.25},
			{"EMI", 0.1},
		},
	}
}

func (c Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("%w: days must be > 0, got %d", ErrInvalidConfig, c.Days)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidConfig)
	}
	for name, v := range map[string]float64{
		"base_sales":        c.BaseSales,
		"trend_max":         c.TrendMax,
		"weekly_amplitude":  c.WeeklyAmplitude,
		"yearly_amplitude":  c.YearlyAmplitude,
		"sales_noise":       c.SalesNoise,
		"sales_floor":       c.SalesFloor,
		"stock_base":        c.StockBase,
		"stock_sales_ratio": c.StockSalesRatio,
		"stock_noise":       c.StockNoise,
		"stock_floor":       c.StockFloor,
		"price_base":        c.PriceBase,
		"price_period":      c.PricePeriod,
		"price_noise":       c.PriceNoise,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, name)
		}
	}
	if c.SalesFloor < 0 || c.StockFloor < 0 {
		return fmt.Errorf("%w: floors must be non-negative", ErrInvalidConfig)
	}
	if c.PricePeriod == 0 {
		return fmt.Errorf("%w: price period must be non-zero", ErrInvalidConfig)
	}
	if c.SalesNoise < 0 || c.StockNoise < 0 || c.PriceNoise < 0 {
		return fmt.Errorf("%w: noise deviations must be non-negative", ErrInvalidConfig)
	}

	for name, choices := range map[string][]Choice{
		"categories":    c.Categories,
		"regions":       c.Regions,
		"payment modes": c.PaymentModes,
	} {
		if err := validateChoices(choices); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func validateChoices(choices []Choice) error {
	if len(choices) == 0 {
		return errors.New("at least one value is required")
	}
	seen := make(map[string]bool, len(choices))
	for _, ch := range choices {
		if ch.Value == "" {
			return errors.New("empty value")
		}
		if seen[ch.Value] {
			return fmt.Errorf("duplicate value %q", ch.Value)
		}
		seen[ch.Value] = true
		if math.IsNaN(ch.Weight) || math.IsInf(ch.Weight, 0) || ch.Weight <= 0 {
			return fmt.Errorf("weight of %q must be positive", ch.Value)
		}
	}
	return nil
}

// LoadProfile overlays the YAML profile at path onto base. Keys absent from
// the file keep the base value; a choice list present in the file replaces
// the base list.
func LoadProfile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read profile: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse profile: %w", err)
	}

	var dates struct {
		StartDate string `yaml:"start_date"`
	}
	if err := yaml.Unmarshal(data, &dates); err != nil {
		return base, fmt.Errorf("parse profile: %w", err)
	}
	if dates.StartDate != "" {
		start, err := time.Parse(dataset.DateLayout, dates.StartDate)
		if err != nil {
			return base, fmt.Errorf("%w: start_date: %v", ErrInvalidConfig, err)
		}
		cfg.StartDate = start
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}
