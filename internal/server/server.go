package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/forecast"
	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	metrics     *observability.Metrics
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, engine *forecast.Engine, horizons config.ForecastConfig, metrics *observability.Metrics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		metrics:     metrics,
		apiHandlers: handlers.NewAPIHandlers(analytics, engine, horizons, metrics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, engine, horizons, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// REST API endpoints
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/sales-by-region", s.apiHandlers.HandleSalesByRegion)
	s.mux.HandleFunc("GET /api/sales-by-category", s.apiHandlers.HandleSalesByCategory)
	s.mux.HandleFunc("GET /api/stocks-by-category", s.apiHandlers.HandleStocksByCategory)
	s.mux.HandleFunc("GET /api/monthly-profit", s.apiHandlers.HandleMonthlyProfit)
	s.mux.HandleFunc("GET /api/sales-by-payment", s.apiHandlers.HandleSalesByPayment)
	s.mux.HandleFunc("GET /api/stocks-by-payment", s.apiHandlers.HandleStocksByPayment)
	s.mux.HandleFunc("POST /api/reload", s.apiHandlers.HandleReload)
	s.mux.HandleFunc("POST /api/forecast", s.apiHandlers.HandleForecast)
	s.mux.HandleFunc("GET /api/forecast", s.apiHandlers.HandleLastForecast)
	s.mux.HandleFunc("GET /api/report.xlsx", s.apiHandlers.HandleReport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("POST /sse/forecast", s.sseHandlers.HandleForecast)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
