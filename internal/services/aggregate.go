package services

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

const (
	// simulatedProfitShare is a display placeholder; the dataset carries no
	// cost data from which a real profit could be derived.
	simulatedProfitShare = 0.15
	quantityScale        = 100
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthNames returns the fixed Jan..Dec ordering used by the monthly table.
func MonthNames() []string { return monthNames[:] }

type salesGroup struct {
	key   string
	total decimal.Decimal
}

// groupSales sums sales per key. Totals are exact decimals so the group sums
// always add up to the grand total; output is sorted by key.
func groupSales(records []models.Record, key func(models.Record) string) []salesGroup {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		k := key(r)
		sums[k] = sums[k].Add(decimal.NewFromFloat(r.Sales))
	}

	out := make([]salesGroup, 0, len(sums))
	for _, k := range slices.Sorted(maps.Keys(sums)) {
		out = append(out, salesGroup{key: k, total: sums[k]})
	}
	return out
}

func groupStocks(records []models.Record, key func(models.Record) string) ([]string, map[string]int64) {
	sums := make(map[string]int64)
	for _, r := range records {
		sums[key(r)] += int64(r.Stocks)
	}
	return slices.Sorted(maps.Keys(sums)), sums
}

func byTotalAscending(groups []salesGroup) {
	slices.SortStableFunc(groups, func(a, b salesGroup) int {
		return a.total.Cmp(b.total)
	})
}

func region(r models.Record) string      { return r.Region }
func category(r models.Record) string    { return r.Category }
func paymentMode(r models.Record) string { return r.PaymentMode }

// SalesByRegion sums sales per region, smallest total first.
func SalesByRegion(records []models.Record) []models.RegionSales {
	groups := groupSales(records, region)
	byTotalAscending(groups)

	out := make([]models.RegionSales, len(groups))
	for i, g := range groups {
		out[i] = models.RegionSales{Region: g.key, Sales: g.total.InexactFloat64()}
	}
	return out
}

// SalesByCategory sums sales per category, smallest total first.
func SalesByCategory(records []models.Record) []models.CategorySales {
	groups := groupSales(records, category)
	byTotalAscending(groups)

	out := make([]models.CategorySales, len(groups))
	for i, g := range groups {
		out[i] = models.CategorySales{Category: g.key, Sales: g.total.InexactFloat64()}
	}
	return out
}

func StocksByCategory(records []models.Record) []models.CategoryStocks {
	keys, sums := groupStocks(records, category)
	out := make([]models.CategoryStocks, len(keys))
	for i, k := range keys {
		out[i] = models.CategoryStocks{Category: k, Stocks: sums[k]}
	}
	return out
}

func SalesByPaymentMode(records []models.Record) []models.PaymentSales {
	groups := groupSales(records, paymentMode)
	out := make([]models.PaymentSales, len(groups))
	for i, g := range groups {
		out[i] = models.PaymentSales{PaymentMode: g.key, Sales: g.total.InexactFloat64()}
	}
	return out
}

func StocksByPaymentMode(records []models.Record) []models.PaymentStocks {
	keys, sums := groupStocks(records, paymentMode)
	out := make([]models.PaymentStocks, len(keys))
	for i, k := range keys {
		out[i] = models.PaymentStocks{PaymentMode: k, Stocks: sums[k]}
	}
	return out
}

// SimulatedMargin is the display margin for month index m (0 = Jan): a sine
// sampled at twelve evenly spaced points over [0, 10].
func SimulatedMargin(m int) float64 {
	return math.Sin(10*float64(m)/11)*0.2 + 0.1
}

// MonthlyProfitTable buckets sales by calendar month name across all years.
// Any non-empty input yields all twelve months in Jan..Dec order; months with
// no rows carry zero sales and HasData=false. Profit is simulated.
func MonthlyProfitTable(records []models.Record) []models.MonthlyProfit {
	if len(records) == 0 {
		return []models.MonthlyProfit{}
	}

	var sums [12]decimal.Decimal
	var seen [12]bool
	for _, r := range records {
		m := int(r.Date.Month()) - 1
		sums[m] = sums[m].Add(decimal.NewFromFloat(r.Sales))
		seen[m] = true
	}

	out := make([]models.MonthlyProfit, 12)
	for m := range out {
		margin := SimulatedMargin(m)
		sales := sums[m].InexactFloat64()
		out[m] = models.MonthlyProfit{
			Month:     monthNames[m],
			Sales:     sales,
			Margin:    margin,
			Profit:    sums[m].Mul(decimal.NewFromFloat(margin)).InexactFloat64(),
			HasData:   seen[m],
			Simulated: true,
		}
	}
	return out
}

// ComputeKPIs derives the headline metrics. Accuracy is left unset; it comes
// from the forecast engine once a forecast exists.
func ComputeKPIs(records []models.Record) models.KPIs {
	kpis := models.KPIs{RecordCount: len(records)}
	if len(records) == 0 {
		return kpis
	}

	total := TotalSales(records)
	var stocks int64
	first, last := records[0].Date, records[0].Date
	for _, r := range records {
		stocks += int64(r.Stocks)
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}

	kpis.TotalSales = total.InexactFloat64()
	kpis.SimulatedProfit = total.Mul(decimal.NewFromFloat(simulatedProfitShare)).InexactFloat64()
	kpis.TotalQuantity = stocks / quantityScale
	kpis.FirstDate = first
	kpis.LastDate = last
	return kpis
}

// TotalSales is the exact sum of every sales value.
func TotalSales(records []models.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Sales))
	}
	return total
}

// Summarize computes every summary table at once.
func Summarize(records []models.Record, at time.Time) *models.Summary {
	return &models.Summary{
		KPIs:                ComputeKPIs(records),
		SalesByRegion:       SalesByRegion(records),
		SalesByCategory:     SalesByCategory(records),
		StocksByCategory:    StocksByCategory(records),
		MonthlyProfit:       MonthlyProfitTable(records),
		SalesByPaymentMode:  SalesByPaymentMode(records),
		StocksByPaymentMode: StocksByPaymentMode(records),
		RecordCount:         len(records),
		LoadedAt:            at,
	}
}
