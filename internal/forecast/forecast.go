// Package forecast wraps time-series forecasting behind a two-call
// interface (fit a series, predict a horizon) so the modelling library can
// be swapped without touching aggregation or transport code.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

var (
	ErrInsufficientData = errors.New("insufficient data for forecast")
	ErrInvalidHorizon   = errors.New("invalid forecast horizon")
	ErrUnavailable      = errors.New("forecast unavailable")
	ErrBusy             = errors.New("forecast already running")
	ErrInvalidSeries    = errors.New("invalid series")
)

// Series is a daily time series with strictly increasing dates.
type Series struct {
	Dates  []time.Time
	Values []float64
}

func (s Series) Len() int { return len(s.Dates) }

func (s Series) Validate() error {
	if len(s.Dates) != len(s.Values) {
		return fmt.Errorf("%w: %d dates for %d values", ErrInvalidSeries, len(s.Dates), len(s.Values))
	}
	for i := 1; i < len(s.Dates); i++ {
		if !s.Dates[i].After(s.Dates[i-1]) {
			return fmt.Errorf("%w: dates not increasing at %d", ErrInvalidSeries, i)
		}
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %d", ErrInvalidSeries, i)
		}
	}
	return nil
}

// Last returns the final date of the series.
func (s Series) Last() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// DailySales turns records into a per-day sales series, summing days that
// appear more than once.
func DailySales(records []models.Record) Series {
	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range records {
		d := r.Date.Truncate(24 * time.Hour)
		sums[d] = sums[d].Add(decimal.NewFromFloat(r.Sales))
	}

	dates := make([]time.Time, 0, len(sums))
	for d := range sums {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = sums[d].InexactFloat64()
	}
	return Series{Dates: dates, Values: values}
}

// FutureDates returns the horizon days following last.
func FutureDates(last time.Time, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

// Model is a fitted model handle.
type Model interface {
	History() Series
}

// Forecaster fits a series and predicts forward from it. Predict returns the
// in-sample rows for the fitted history followed by horizonDays future rows.
type Forecaster interface {
	Fit(ctx context.Context, series Series) (Model, error)
	Predict(ctx context.Context, model Model, horizonDays int) ([]models.ForecastPoint, error)
}

// Accuracy compares the in-sample points against the observed series.
func Accuracy(series Series, points []models.ForecastPoint) models.ForecastAccuracy {
	var absSum, sqSum, pctSum float64
	var n, pctN int
	for i, p := range points {
		if !p.InSample || i >= series.Len() {
			break
		}
		diff := series.Values[i] - p.Estimate
		absSum += math.Abs(diff)
		sqSum += diff * diff
		n++
		if series.Values[i] != 0 {
			pctSum += math.Abs(diff / series.Values[i])
			pctN++
		}
	}

	var acc models.ForecastAccuracy
	if n > 0 {
		acc.MAE = absSum / float64(n)
		acc.RMSE = math.Sqrt(sqSum / float64(n))
	}
	if pctN > 0 {
		acc.MAPE = 100 * pctSum / float64(pctN)
	}
	return acc
}
