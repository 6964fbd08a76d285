// Package report renders dashboard summaries as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

// Sheet names, in workbook order.
const (
	SheetKPIs             = "KPIs"
	SheetSalesByRegion    = "Sales by Region"
	SheetSalesByCategory  = "Sales by Category"
	SheetStocksByCategory = "Stocks by Category"
	SheetMonthlyProfit    = "Monthly Profit"
	SheetSalesByPayment   = "Sales by Payment"
	SheetStocksByPayment  = "Stocks by Payment"
	SheetForecast         = "Forecast"
	SheetDataset          = "Dataset"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// Write renders the summary to w. The forecast and dataset sheets are added
// when fc is non-nil and records is non-empty.
func Write(w io.Writer, s *models.Summary, fc *models.Forecast, records []models.Record) error {
	if s == nil {
		return fmt.Errorf("report: nil summary")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}

	for i, sh := range sheets(s, fc, records) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return fmt.Errorf("report: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("report: create sheet %q: %w", sh.name, err)
		}
		if err := writeSheet(f, sh, bold); err != nil {
			return fmt.Errorf("report: sheet %q: %w", sh.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sh sheet, headerStyle int) error {
	if err := f.SetSheetRow(sh.name, "A1", &sh.header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sh.name, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range sh.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(sh.header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sh.name, "A", last, 18)
}

func sheets(s *models.Summary, fc *models.Forecast, records []models.Record) []sheet {
	k := s.KPIs
	kpis := sheet{
		name:   SheetKPIs,
		header: []any{"Metric", "Value"},
		rows: [][]any{
			{"Total Sales", k.TotalSales},
			{"Simulated Profit", k.SimulatedProfit},
			{"Total Quantity", k.TotalQuantity},
			{"Records", k.RecordCount},
			{"First Date", formatDate(k.FirstDate)},
			{"Last Date", formatDate(k.LastDate)},
			{"Generated At", s.LoadedAt.UTC().Format(time.RFC3339)},
		},
	}
	if a := k.ForecastAccuracy; a != nil {
		kpis.rows = append(kpis.rows,
			[]any{"Forecast MAE", a.MAE},
			[]any{"Forecast RMSE", a.RMSE},
			[]any{"Forecast MAPE (%)", a.MAPE},
		)
	}

	out := []sheet{kpis}

	region := sheet{name: SheetSalesByRegion, header: []any{"Region", "Sales"}}
	for _, r := range s.SalesByRegion {
		region.rows = append(region.rows, []any{r.Region, r.Sales})
	}
	salesCat := sheet{name: SheetSalesByCategory, header: []any{"Category", "Sales"}}
	for _, r := range s.SalesByCategory {
		salesCat.rows = append(salesCat.rows, []any{r.Category, r.Sales})
	}
	stockCat := sheet{name: SheetStocksByCategory, header: []any{"Category", "Stocks"}}
	for _, r := range s.StocksByCategory {
		stockCat.rows = append(stockCat.rows, []any{r.Category, r.Stocks})
	}
	monthly := sheet{name: SheetMonthlyProfit, header: []any{"Month", "Sales", "Margin", "Profit", "Simulated"}}
	for _, r := range s.MonthlyProfit {
		monthly.rows = append(monthly.rows, []any{r.Month, r.Sales, r.Margin, r.Profit, r.Simulated})
	}
	salesPay := sheet{name: SheetSalesByPayment, header: []any{"Payment Mode", "Sales"}}
	for _, r := range s.SalesByPaymentMode {
		salesPay.rows = append(salesPay.rows, []any{r.PaymentMode, r.Sales})
	}
	stockPay := sheet{name: SheetStocksByPayment, header: []any{"Payment Mode", "Stocks"}}
	for _, r := range s.StocksByPaymentMode {
		stockPay.rows = append(stockPay.rows, []any{r.PaymentMode, r.Stocks})
	}
	out = append(out, region, salesCat, stockCat, monthly, salesPay, stockPay)

	if fc != nil {
		forecast := sheet{name: SheetForecast, header: []any{"Date", "Estimate", "Lower", "Upper", "In Sample"}}
		for _, p := range fc.Points {
			forecast.rows = append(forecast.rows, []any{formatDate(p.Date), p.Estimate, p.LowerBound, p.UpperBound, p.InSample})
		}
		out = append(out, forecast)
	}

	if len(records) > 0 {
		header := make([]any, len(dataset.Header))
		for i, h := range dataset.Header {
			header[i] = h
		}
		data := sheet{name: SheetDataset, header: header}
		for _, r := range records {
			data.rows = append(data.rows, []any{formatDate(r.Date), r.Sales, r.Stocks, r.Price, r.Category, r.Region, r.PaymentMode})
		}
		out = append(out, data)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dataset.DateLayout)
}
