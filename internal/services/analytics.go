package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

// ErrDataUnavailable is returned while no dataset is loaded.
var ErrDataUnavailable = dataset.ErrDataUnavailable

// Analytics is the caller-owned in-memory handle over the cleaned dataset.
// Data changes only through Load, Reload, SetData and Invalidate.
type Analytics struct {
	mu       sync.RWMutex
	records  []models.Record
	summary  *models.Summary
	dropped  int
	csvPath  string
	loads    singleflight.Group
	loadedAt time.Time
	logger   *slog.Logger
}

func NewAnalytics(csvPath string, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		csvPath: csvPath,
		logger:  logger,
	}
}

func (a *Analytics) Path() string { return a.csvPath }

// Load reads the dataset file and replaces the held data. On failure the
// previously held data, if any, is left in place.
func (a *Analytics) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	a.logger.Info("loading dataset", "path", a.csvPath)

	table, err := dataset.ReadFile(a.csvPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records := table.Records()
	dropped := table.Dropped()
	if dropped > 0 {
		a.logger.Warn("skipped malformed rows", "path", a.csvPath, "dropped", dropped)
	}

	a.store(records, dropped)

	a.logger.Info("dataset loaded",
		"records", len(records),
		"dropped", dropped,
		"duration", time.Since(start))
	return nil
}

// Reload re-reads the dataset file. Concurrent callers share one read, which
// is detached from any single caller's cancellation; a caller whose context
// ends stops waiting but the shared read completes for the others.
func (a *Analytics) Reload(ctx context.Context) error {
	ch := a.loads.DoChan("reload", func() (any, error) {
		return nil, a.Load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Shared {
			a.logger.Debug("reload coalesced with in-flight load")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate drops the held data; queries report no data until the next load.
func (a *Analytics) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = nil
	a.summary = nil
	a.dropped = 0
	a.loadedAt = time.Time{}
	a.logger.Info("dataset invalidated", "path", a.csvPath)
}

// SetData installs records directly, bypassing the file.
func (a *Analytics) SetData(records []models.Record) {
	a.store(append([]models.Record(nil), records...), 0)
}

func (a *Analytics) store(records []models.Record, dropped int) {
	now := time.Now()
	summary := Summarize(records, now)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = records
	a.summary = summary
	a.dropped = dropped
	a.loadedAt = now
}

func (a *Analytics) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary != nil
}

// LoadedAt is when the held data was installed, zero while none is held.
func (a *Analytics) LoadedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loadedAt
}

// Dropped is the number of malformed rows skipped by the last Load.
func (a *Analytics) Dropped() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dropped
}

// Records returns a copy of the held records.
func (a *Analytics) Records() []models.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.Record(nil), a.records...)
}

func (a *Analytics) Summary() (*models.Summary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.summary == nil {
		return nil, ErrDataUnavailable
	}
	return cloneSummary(a.summary), nil
}

func cloneSummary(s *models.Summary) *models.Summary {
	c := *s
	if s.KPIs.ForecastAccuracy != nil {
		acc := *s.KPIs.ForecastAccuracy
		c.KPIs.ForecastAccuracy = &acc
	}
	c.SalesByRegion = slices.Clone(s.SalesByRegion)
	c.SalesByCategory = slices.Clone(s.SalesByCategory)
	c.StocksByCategory = slices.Clone(s.StocksByCategory)
	c.MonthlyProfit = slices.Clone(s.MonthlyProfit)
	c.SalesByPaymentMode = slices.Clone(s.SalesByPaymentMode)
	c.StocksByPaymentMode = slices.Clone(s.StocksByPaymentMode)
	return &c
}

func (a *Analytics) KPIs() (models.KPIs, error) {
	s, err := a.Summary()
	if err != nil {
		return models.KPIs{}, err
	}
	return s.KPIs, nil
}

// Table getters return copies, or empty slices while no data is held.

func (a *Analytics) SalesByRegion() []models.RegionSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.summary == nil {
		return []models.RegionSales{}
	}
	return slices.Clone(a.summary.SalesByRegion)
}

func (a *Analytics) SalesByCategory() []models.CategorySales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.summary == nil {
		return []models.CategorySales{}
	}
	return slices.Clone(a.summary.SalesByCategory)
}

func (a *Analytics) StocksByCategory() []models.CategoryStocks {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.summary == nil {
		return []models.CategoryStocks{}
	}
	return slices.Clone(a.summary.StocksByCategory)
}

func (a *Analytics) MonthlyProfit() []models.MonthlyProfit {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.summary == nil {
		return []models.MonthlyProfit{}
	}
	return slices.Clone(a.summary.MonthlyProfit)
}

func (a *Analytics) SalesByPaymentMode() []models.PaymentSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.summary == nil {
		return []models.PaymentSales{}
	}
	return slices.Clone(a.summary.SalesByPaymentMode)
}

func (a *Analytics) StocksByPaymentMode() []models.PaymentStocks {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.summary == nil {
		return []models.PaymentStocks{}
	}
	return slices.Clone(a.summary.StocksByPaymentMode)
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"path":         a.csvPath,
		"available":    a.summary != nil,
		"record_count": len(a.records),
		"dropped_rows": a.dropped,
	}
	if a.summary != nil {
		stats["loaded_at"] = a.loadedAt
		stats["regions"] = len(a.summary.SalesByRegion)
		stats["categories"] = len(a.summary.StocksByCategory)
		stats["payment_modes"] = len(a.summary.SalesByPaymentMode)
		stats["months"] = len(a.summary.MonthlyProfit)
	}
	return stats
}
