package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"retail-dashboard/internal/models"
)

// Run outcomes reported to the observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)

// Observer receives the outcome and duration of every Run.
type Observer func(outcome string, elapsed time.Duration)

// Engine runs one forecast at a time and keeps the last successful result.
type Engine struct {
	forecaster Forecaster
	sem        *semaphore.Weighted
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
	observe    Observer

	mu   sync.RWMutex
	last *models.Forecast
}

type EngineOption func(*Engine)

// WithTimeout bounds each Run. Zero disables the bound.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observe = o }
}

func NewEngine(f Forecaster, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		forecaster: f,
		sem:        semaphore.NewWeighted(1),
		logger:     logger,
		tracer:     otel.Tracer("retail-dashboard/forecast"),
		observe:    func(string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run fits the daily sales of records and predicts horizonDays ahead. A Run
// that starts while another is in flight fails with ErrBusy. Failures leave
// the previous forecast in place.
func (e *Engine) Run(ctx context.Context, records []models.Record, horizonDays int) (*models.Forecast, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizonDays)
	}
	if !e.sem.TryAcquire(1) {
		e.observe(OutcomeBusy, 0)
		return nil, ErrBusy
	}
	defer e.sem.Release(1)

	ctx, span := e.tracer.Start(ctx, "forecast.Run",
		trace.WithAttributes(
			attribute.Int("forecast.horizon_days", horizonDays),
			attribute.Int("forecast.records", len(records)),
		))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	fc, err := e.run(ctx, records, horizonDays)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.observe(OutcomeFailure, elapsed)
		e.logger.Warn("Forecast failed",
			"horizon_days", horizonDays,
			"duration", elapsed,
			"error", err,
		)
		if errors.Is(err, ErrInvalidHorizon) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	fc.Duration = elapsed
	span.SetAttributes(attribute.String("forecast.id", fc.ID))
	e.observe(OutcomeSuccess, elapsed)

	e.mu.Lock()
	e.last = fc
	e.mu.Unlock()

	e.logger.Info("Forecast completed",
		"forecast_id", fc.ID,
		"horizon_days", horizonDays,
		"points", len(fc.Points),
		"mape", fc.Accuracy.MAPE,
		"duration", elapsed,
	)
	return fc, nil
}

func (e *Engine) run(ctx context.Context, records []models.Record, horizonDays int) (*models.Forecast, error) {
	series := DailySales(records)

	model, err := e.forecaster.Fit(ctx, series)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points, err := e.forecaster.Predict(ctx, model, horizonDays)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.Forecast{
		ID:          uuid.NewString(),
		HorizonDays: horizonDays,
		Points:      points,
		Accuracy:    Accuracy(series, points),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Last returns the most recent successful forecast.
func (e *Engine) Last() (*models.Forecast, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.last != nil
}

// Busy reports whether a forecast is currently running.
func (e *Engine) Busy() bool {
	if e.sem.TryAcquire(1) {
		e.sem.Release(1)
		return false
	}
	return true
}
