package forecast

import (
	"context"
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-forecaster"

	"retail-dashboard/internal/models"
)

// MinObservations is the shortest history the additive model accepts: two
// full weekly cycles.
const MinObservations = 14

// Additive fits a trend + seasonality regression with uncertainty bands
// using go-forecaster.
type Additive struct{}

func NewAdditive() *Additive { return &Additive{} }

type additiveModel struct {
	f       *forecaster.Forecaster
	history Series
}

func (m *additiveModel) History() Series { return m.history }

func (a *Additive) Fit(ctx context.Context, series Series) (Model, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if series.Len() < MinObservations {
		return nil, fmt.Errorf("%w: %d observations, need %d", ErrInsufficientData, series.Len(), MinObservations)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := forecaster.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create forecaster: %w", err)
	}
	if err := f.Fit(series.Dates, series.Values); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	return &additiveModel{f: f, history: series}, nil
}

func (a *Additive) Predict(ctx context.Context, model Model, horizonDays int) ([]models.ForecastPoint, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizonDays)
	}
	m, ok := model.(*additiveModel)
	if !ok {
		return nil, fmt.Errorf("unsupported model %T", model)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	history := m.history.Dates
	times := append(append(make([]time.Time, 0, len(history)+horizonDays), history...), FutureDates(m.history.Last(), horizonDays)...)

	res, err := m.f.Predict(times)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return toPoints(res, len(history))
}

func toPoints(res *forecaster.Results, inSample int) ([]models.ForecastPoint, error) {
	n := len(res.T)
	if len(res.Forecast) != n || len(res.Upper) != n || len(res.Lower) != n {
		return nil, fmt.Errorf("predict: mismatched result lengths t=%d forecast=%d upper=%d lower=%d",
			n, len(res.Forecast), len(res.Upper), len(res.Lower))
	}

	points := make([]models.ForecastPoint, n)
	for i := range points {
		points[i] = models.ForecastPoint{
			Date:       res.T[i],
			Estimate:   res.Forecast[i],
			LowerBound: res.Lower[i],
			UpperBound: res.Upper[i],
			InSample:   i < inSample,
		}
	}
	return points, nil
}
