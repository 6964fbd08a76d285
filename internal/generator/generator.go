// Package generator synthesizes the daily retail dataset: a linear trend plus
// weekly and yearly sinusoids plus gaussian noise, with categorical attributes
// drawn from fixed distributions. Output is fully determined by the config.
package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

type Dataset struct {
	Config  Config
	Records []models.Record
}

// Generate builds cfg.Days records. The random stream is consumed in a fixed
// order: every sales noise, every stock noise, every price noise, then per row
// category, region and payment mode.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Days
	rng := rand.New(rand.NewSource(cfg.Seed))

	salesNoise := normals(rng, n, cfg.SalesNoise)
	stockNoise := normals(rng, n, cfg.StockNoise)
	priceNoise := normals(rng, n, cfg.PriceNoise)

	records := make([]models.Record, n)
	for i := 0; i < n; i++ {
		x := float64(i)

		sales := cfg.BaseSales + trend(i, n, cfg.TrendMax) +
			cfg.WeeklyAmplitude*math.Sin(2*math.Pi*x/7) +
			cfg.YearlyAmplitude*math.Sin(2*math.Pi*x/365) +
			salesNoise[i]
		sales = math.Max(sales, cfg.SalesFloor)

		stocks := cfg.StockBase - cfg.StockSalesRatio*sales + stockNoise[i]
		stocks = math.Max(stocks, cfg.StockFloor)

		price := cfg.PriceBase + math.Sin(x/cfg.PricePeriod) + priceNoise[i]

		records[i] = models.Record{
			Date:   cfg.StartDate.AddDate(0, 0, i),
			Sales:  round2(sales),
			Stocks: int(stocks),
			Price:  round2(price),
		}
	}

	for i := range records {
		records[i].Category = pick(rng, cfg.Categories)
		records[i].Region = pick(rng, cfg.Regions)
		records[i].PaymentMode = pick(rng, cfg.PaymentModes)
	}

	return &Dataset{Config: cfg, Records: records}, nil
}

// WriteFile writes ds to path, creating the directory when missing.
func WriteFile(path string, ds *Dataset) error {
	if err := dataset.WriteRecordsFile(path, ds.Records); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// trend ramps linearly from 0 at i=0 to top at i=n-1.
func trend(i, n int, top float64) float64 {
	if n < 2 {
		return 0
	}
	return top * float64(i) / float64(n-1)
}

func normals(rng *rand.Rand, n int, sigma float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

func pick(rng *rand.Rand, choices []Choice) string {
	total := 0.0
	for _, ch := range choices {
		total += ch.Weight
	}

	u := rng.Float64() * total
	acc := 0.0
	for _, ch := range choices {
		acc += ch.Weight
		if u < acc {
			return ch.Value
		}
	}
	return choices[len(choices)-1].Value
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(2).InexactFloat64()
}
