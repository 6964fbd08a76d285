package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/forecast"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/report"
	"retail-dashboard/internal/services"
)

const (
	cacheTables = "no-cache"
	noStore     = "no-store"
	xlsxType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	version     = "1.0.0"
)

type APIHandlers struct {
	analytics *services.Analytics
	engine    *forecast.Engine
	horizons  config.ForecastConfig
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, engine *forecast.Engine, horizons config.ForecastConfig, metrics *observability.Metrics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		engine:    engine,
		horizons:  horizons,
		metrics:   metrics,
		logger:    logger,
	}
}

// available writes a data-unavailable error and reports false when no
// dataset is loaded.
func (h *APIHandlers) available(w http.ResponseWriter, r *http.Request) bool {
	if h.analytics.Available() {
		return true
	}
	errors.WriteError(w, h.logger, errors.DataUnavailable(services.ErrDataUnavailable), requestID(r))
	return false
}

// writeTable serves a summary table with a weak ETag tied to the dataset load.
func (h *APIHandlers) writeTable(w http.ResponseWriter, r *http.Request, table func() any) {
	if !h.available(w, r) {
		return
	}
	etag := datasetETag(h.analytics.LoadedAt())
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", cacheTables)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	errors.WriteSuccessWithHeaders(w, table(), map[string]string{
		"Cache-Control": cacheTables,
		"ETag":          etag,
	})
}

func datasetETag(loadedAt time.Time) string {
	return `W/"` + strconv.FormatInt(loadedAt.UnixNano(), 36) + `"`
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary()
	if err != nil {
		errors.WriteError(w, h.logger, errors.DataUnavailable(err), requestID(r))
		return
	}
	summary.KPIs = withAccuracy(summary.KPIs, h.engine)

	errors.WriteSuccessWithHeaders(w, summary, map[string]string{
		"Cache-Control": noStore,
	})
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.analytics.KPIs()
	if err != nil {
		errors.WriteError(w, h.logger, errors.DataUnavailable(err), requestID(r))
		return
	}

	errors.WriteSuccessWithHeaders(w, withAccuracy(kpis, h.engine), map[string]string{
		"Cache-Control": noStore,
	})
}

func (h *APIHandlers) HandleSalesByRegion(w http.ResponseWriter, r *http.Request) {
	h.writeTable(w, r, func() any { return h.analytics.SalesByRegion() })
}

func (h *APIHandlers) HandleSalesByCategory(w http.ResponseWriter, r *http.Request) {
	h.writeTable(w, r, func() any { return h.analytics.SalesByCategory() })
}

func (h *APIHandlers) HandleStocksByCategory(w http.ResponseWriter, r *http.Request) {
	h.writeTable(w, r, func() any { return h.analytics.StocksByCategory() })
}

func (h *APIHandlers) HandleMonthlyProfit(w http.ResponseWriter, r *http.Request) {
	h.writeTable(w, r, func() any { return h.analytics.MonthlyProfit() })
}

func (h *APIHandlers) HandleSalesByPayment(w http.ResponseWriter, r *http.Request) {
	h.writeTable(w, r, func() any { return h.analytics.SalesByPaymentMode() })
}

func (h *APIHandlers) HandleStocksByPayment(w http.ResponseWriter, r *http.Request) {
	h.writeTable(w, r, func() any { return h.analytics.StocksByPaymentMode() })
}

func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	err := h.analytics.Reload(r.Context())
	h.metrics.ObserveReload(err)
	if err != nil {
		if stderrors.Is(err, services.ErrDataUnavailable) {
			errors.WriteError(w, h.logger, errors.DataUnavailable(err), requestID(r))
			return
		}
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Dataset reload failed"), requestID(r))
		return
	}

	stats := h.analytics.Stats()
	h.metrics.SetDataset(len(h.analytics.Records()), h.analytics.Dropped())

	errors.WriteSuccess(w, stats)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	horizon := h.horizons.DefaultHorizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "horizon must be an integer"), requestID(r))
			return
		}
		horizon = n
	}
	if !h.horizons.ValidHorizon(horizon) {
		msg := fmt.Sprintf("horizon must be between %d and %d days", h.horizons.MinHorizon, h.horizons.MaxHorizon)
		errors.WriteError(w, h.logger, errors.Validation(msg), requestID(r))
		return
	}
	if !h.available(w, r) {
		return
	}

	fc, err := h.engine.Run(r.Context(), h.analytics.Records(), horizon)
	if err != nil {
		errors.WriteError(w, h.logger, forecastError(err), requestID(r))
		return
	}

	errors.WriteSuccessWithHeaders(w, fc, map[string]string{
		"Cache-Control": noStore,
	})
}

func (h *APIHandlers) HandleLastForecast(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.engine.Last()
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("No forecast has been run yet"), requestID(r))
		return
	}

	errors.WriteSuccessWithHeaders(w, fc, map[string]string{
		"Cache-Control": noStore,
	})
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary()
	if err != nil {
		errors.WriteError(w, h.logger, errors.DataUnavailable(err), requestID(r))
		return
	}
	summary.KPIs = withAccuracy(summary.KPIs, h.engine)
	fc, _ := h.engine.Last()

	var buf bytes.Buffer
	if err := report.Write(&buf, summary, fc, h.analytics.Records()); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Report generation failed"), requestID(r))
		return
	}

	filename := fmt.Sprintf("retail-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", noStore)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write report", "error", err, "request_id", requestID(r))
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().Format(time.RFC3339),
		"version":        version,
		"data_available": h.analytics.Available(),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()
	stats["forecast_running"] = h.engine.Busy()
	if fc, ok := h.engine.Last(); ok {
		stats["last_forecast_id"] = fc.ID
		stats["last_forecast_at"] = fc.CreatedAt
	}

	errors.WriteSuccess(w, stats)
}

func requestID(r *http.Request) string {
	return observability.GetRequestID(r.Context())
}

func withAccuracy(k models.KPIs, engine *forecast.Engine) models.KPIs {
	if fc, ok := engine.Last(); ok {
		acc := fc.Accuracy
		k.ForecastAccuracy = &acc
	}
	return k
}

func forecastError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, forecast.ErrBusy):
		return errors.Conflict("A forecast is already running")
	case stderrors.Is(err, forecast.ErrInvalidHorizon):
		return errors.ValidationWrap(err, "Invalid forecast horizon")
	case stderrors.Is(err, forecast.ErrInsufficientData):
		return errors.ForecastUnavailable(err, "Not enough history to forecast")
	default:
		return errors.ForecastUnavailable(err, "Forecast could not be produced")
	}
}
