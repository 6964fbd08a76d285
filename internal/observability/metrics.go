package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry so tests can build as many
// instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	forecastRuns     *prometheus.CounterVec
	forecastDuration prometheus.Histogram
	datasetRecords   prometheus.Gauge
	datasetDropped   prometheus.Gauge
	reloads          *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		forecastRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Forecast runs by outcome.",
		}, []string{"outcome"}),
		forecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_duration_seconds",
			Help:    "Forecast fit and predict duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_records",
			Help: "Records in the loaded dataset.",
		}),
		datasetDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_dropped_rows",
			Help: "Malformed rows skipped by the last load.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataset_reloads_total",
			Help: "Dataset reloads by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.forecastRuns,
		m.forecastDuration,
		m.datasetRecords,
		m.datasetDropped,
		m.reloads,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveForecast matches forecast.Observer.
func (m *Metrics) ObserveForecast(outcome string, elapsed time.Duration) {
	m.forecastRuns.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.forecastDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) SetDataset(records, dropped int) {
	m.datasetRecords.Set(float64(records))
	m.datasetDropped.Set(float64(dropped))
}

func (m *Metrics) ObserveReload(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.reloads.WithLabelValues(outcome).Inc()
}
