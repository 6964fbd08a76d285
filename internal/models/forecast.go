package models

import "time"

type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Estimate   float64   `json:"estimate"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
	// InSample marks rows that cover the fitted history rather than the horizon.
	InSample bool `json:"in_sample"`
}

// ForecastAccuracy is measured on the in-sample rows of a forecast.
type ForecastAccuracy struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

type Forecast struct {
	ID          string           `json:"id"`
	HorizonDays int              `json:"horizon_days"`
	Points      []ForecastPoint  `json:"points"`
	Accuracy    ForecastAccuracy `json:"accuracy"`
	CreatedAt   time.Time        `json:"created_at"`
	Duration    time.Duration    `json:"duration"`
}

// Future returns the points beyond the fitted history.
func (f *Forecast) Future() []ForecastPoint {
	for i, p := range f.Points {
		if !p.InSample {
			return f.Points[i:]
		}
	}
	return nil
}
