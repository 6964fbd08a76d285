package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/forecast"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
)

var funcs = template.FuncMap{
	"money": func(v float64) string { return formatMoney(v) },
	"pct":   func(v float64) string { return formatPercent(v) },
}

var kpiTemplate = template.Must(template.New("kpis").Funcs(funcs).Parse(`
<div id="kpis" class="kpi-row">
<div class="kpi-card"><span class="kpi-label">Total Amount</span><strong>{{money .TotalSales}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Profit <em>(simulated)</em></span><strong>{{money .SimulatedProfit}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Total Quantity</span><strong>{{.TotalQuantity}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Forecast MAPE</span><strong>{{with .ForecastAccuracy}}{{pct .MAPE}}{{else}}n/a{{end}}</strong></div>
</div>`))

var categoryTableTemplate = template.Must(template.New("categoryTable").Funcs(funcs).Parse(`
<div id="category-content">
<table class="modern-table">
<thead><tr><th>Category</th><th>Sales</th></tr></thead>
<tbody>
{{range .}}<tr>
<td><span class="category-badge">{{.Category}}</span></td>
<td><strong>{{money .Sales}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var forecastStatusTemplate = template.Must(template.New("forecastStatus").Funcs(funcs).Parse(`
<div id="forecast-status" class="{{.Class}}">{{.Message}}{{with .Accuracy}} <small>MAE {{money .MAE}} · RMSE {{money .RMSE}} · MAPE {{pct .MAPE}}</small>{{end}}</div>`))

const noDataHTML = `<div id="dashboard-status" class="status-warning">No dataset loaded. Run the generator and the cleaner, then reload.</div>`

type SSEHandlers struct {
	analytics *services.Analytics
	engine    *forecast.Engine
	horizons  config.ForecastConfig
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, engine *forecast.Engine, horizons config.ForecastConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		engine:    engine,
		horizons:  horizons,
		logger:    logger,
	}
}

type forecastStatus struct {
	Class    string
	Message  string
	Accuracy *models.ForecastAccuracy
}

// forecastSignals carries the horizon slider value.
type forecastSignals struct {
	Horizon int `json:"horizon"`
}

func render(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := t.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.analytics.Summary()
	if err != nil {
		sse.PatchElements(noDataHTML)
		flush(w)
		return
	}
	summary.KPIs = withAccuracy(summary.KPIs, h.engine)

	html, err := render(kpiTemplate, summary.KPIs)
	if err != nil {
		h.logger.Error("render kpis", "error", err)
		return
	}
	sse.PatchElements(html)

	html, err = render(categoryTableTemplate, summary.SalesByCategory)
	if err != nil {
		h.logger.Error("render category table", "error", err)
		return
	}
	sse.PatchElements(html)

	// Send all chart data in one call
	allSignals, err := json.Marshal(map[string]any{
		"salesByRegion":    summary.SalesByRegion,
		"stocksByCategory": summary.StocksByCategory,
		"monthlyProfit":    summary.MonthlyProfit,
		"salesByPayment":   summary.SalesByPaymentMode,
		"stocksByPayment":  summary.StocksByPaymentMode,
	})
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	flush(w)
}

func (h *SSEHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	var signals forecastSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read forecast signals", "error", err)
	}
	horizon := h.horizons.ClampHorizon(signals.Horizon)

	sse := datastar.NewSSE(w, r)

	if !h.analytics.Available() {
		h.patchStatus(sse, forecastStatus{Class: "status-warning", Message: "No dataset loaded."})
		flush(w)
		return
	}

	h.patchStatus(sse, forecastStatus{Class: "status-info", Message: "Forecasting…"})
	flush(w)

	fc, err := h.engine.Run(r.Context(), h.analytics.Records(), horizon)
	if err != nil {
		h.patchStatus(sse, forecastStatus{Class: "status-error", Message: forecastError(err).Message})
		flush(w)
		return
	}

	data, err := json.Marshal(map[string]any{
		"horizon":      horizon,
		"forecastData": fc.Future(),
		"forecastId":   fc.ID,
	})
	if err != nil {
		h.logger.Error("marshal forecast data", "error", err)
		return
	}
	sse.PatchSignals(data)

	h.patchStatus(sse, forecastStatus{
		Class:    "status-ok",
		Message:  "Forecast ready.",
		Accuracy: &fc.Accuracy,
	})

	if kpis, err := h.analytics.KPIs(); err == nil {
		if html, err := render(kpiTemplate, withAccuracy(kpis, h.engine)); err == nil {
			sse.PatchElements(html)
		}
	}

	flush(w)
}

func (h *SSEHandlers) patchStatus(sse *datastar.ServerSentEventGenerator, status forecastStatus) {
	html, err := render(forecastStatusTemplate, status)
	if err != nil {
		h.logger.Error("render forecast status", "error", err)
		return
	}
	sse.PatchElements(html)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
