package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"retail-dashboard/internal/dataset"
	"retail-dashboard/internal/models"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cleaned_retail_sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validCSV = `Date,Sales,Stocks,Price,Category,Region,Payment_Mode
2023-01-15,999.99,500,25.1,Electronics,Delhi,UPI
2023-01-16,59.98,800,24.7,Clothing,Karnataka,COD
2023-02-01,199.99,640,25.4,Clothing,Delhi,EMI
`

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics("data.csv", nil)
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if a.Available() {
		t.Error("a new handle should not report data")
	}
	if a.Path() != "data.csv" {
		t.Errorf("Path() = %q, want %q", a.Path(), "data.csv")
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := NewAnalytics("", nil)
	testData := []models.Record{
		{Date: day(2023, time.January, 15), Sales: 999.99, Stocks: 500, Category: "Electronics", Region: "Delhi", PaymentMode: "UPI"},
		{Date: day(2023, time.January, 16), Sales: 59.98, Stocks: 800, Category: "Clothing", Region: "Karnataka", PaymentMode: "COD"},
	}

	a.SetData(testData)

	summary, err := a.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.RecordCount != 2 {
		t.Errorf("Expected RecordCount = 2, got %d", summary.RecordCount)
	}

	if len(a.SalesByRegion()) != 2 {
		t.Error("SalesByRegion() should return two regions")
	}
	if len(a.StocksByCategory()) != 2 {
		t.Error("StocksByCategory() should return two categories")
	}
	if len(a.MonthlyProfit()) != 12 {
		t.Error("MonthlyProfit() should return twelve months")
	}
	if len(a.SalesByPaymentMode()) != 2 || len(a.StocksByPaymentMode()) != 2 {
		t.Error("payment tables should return two modes")
	}

	// Mutating the caller's slice must not leak into the handle.
	testData[0].Sales = 1
	if got := a.Records()[0].Sales; got != 999.99 {
		t.Errorf("held record changed to %v", got)
	}
}

func TestAnalytics_Load_ValidData(t *testing.T) {
	a := NewAnalytics(createTempCSV(t, validCSV), nil)

	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("Load() with valid data should not error, got: %v", err)
	}

	kpis, err := a.KPIs()
	if err != nil {
		t.Fatalf("KPIs() error = %v", err)
	}
	if kpis.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", kpis.RecordCount)
	}
	if kpis.TotalSales != 1259.96 {
		t.Errorf("TotalSales = %v, want 1259.96", kpis.TotalSales)
	}

	regions := a.SalesByRegion()
	if len(regions) != 2 || regions[0].Region != "Karnataka" || regions[1].Region != "Delhi" {
		t.Errorf("SalesByRegion() = %+v, want Karnataka then Delhi", regions)
	}
}

func TestAnalytics_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			wantErr: ErrDataUnavailable,
		},
		{
			name:    "empty file",
			setup:   func(t *testing.T) string { return createTempCSV(t, "") },
			wantErr: dataset.ErrEmptyFile,
		},
		{
			name:    "missing column",
			setup:   func(t *testing.T) string { return createTempCSV(t, "Date,Sales\n2023-01-01,1\n") },
			wantErr: dataset.ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalytics(tt.setup(t), nil)
			err := a.Load(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if a.Available() {
				t.Error("failed load should leave the handle empty")
			}
			if _, err := a.Summary(); !errors.Is(err, ErrDataUnavailable) {
				t.Errorf("Summary() error = %v, want ErrDataUnavailable", err)
			}
		})
	}
}

func TestAnalytics_Load_HeaderOnly(t *testing.T) {
	a := NewAnalytics(createTempCSV(t, "Date,Sales,Stocks,Price,Category,Region,Payment_Mode\n"), nil)
	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !a.Available() {
		t.Error("header-only dataset should load as empty data")
	}
	if len(a.MonthlyProfit()) != 0 {
		t.Error("empty dataset should yield an empty monthly table")
	}
}

func TestAnalytics_Load_SkipsMalformedRows(t *testing.T) {
	content := validCSV + "2023-02-02,oops,1,1,Clothing,Delhi,UPI\n"
	a := NewAnalytics(createTempCSV(t, content), nil)
	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := a.Stats()["dropped_rows"]; got != 1 {
		t.Errorf("dropped_rows = %v, want 1", got)
	}
	if got := len(a.Records()); got != 3 {
		t.Errorf("records = %d, want 3", got)
	}
}

func TestAnalytics_Load_NonFiniteRows(t *testing.T) {
	raw := createTempCSV(t, validCSV+
		"2023-02-02,NaN,700,25,Clothing,Delhi,UPI\n"+
		"2023-02-03,Inf,700,25,Clothing,Delhi,UPI\n"+
		"2023-02-04,80,700,+Infinity,Clothing,Delhi,UPI\n")
	clean := filepath.Join(t.TempDir(), "cleaned.csv")

	stats, err := dataset.CleanFile(raw, clean)
	if err != nil {
		t.Fatalf("CleanFile() error = %v", err)
	}
	if stats.Dropped != 3 {
		t.Errorf("cleaning dropped %d rows, want 3", stats.Dropped)
	}

	a := NewAnalytics(clean, nil)
	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(a.Records()); got != 3 {
		t.Errorf("records = %d, want 3", got)
	}

	// Loading the raw file directly skips the same rows.
	direct := NewAnalytics(raw, nil)
	if err := direct.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := direct.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestAnalytics_Load_CancelledContext(t *testing.T) {
	a := NewAnalytics(createTempCSV(t, validCSV), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestAnalytics_Reload(t *testing.T) {
	path := createTempCSV(t, validCSV)
	a := NewAnalytics(path, nil)
	if err := a.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	extra := validCSV + "2023-03-01,10,300,25,Furniture,Assam,UPI\n"
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := a.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := len(a.Records()); got != 4 {
		t.Errorf("records after reload = %d, want 4", got)
	}

	// A failed reload keeps what was loaded.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := a.Reload(context.Background()); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Reload() error = %v, want ErrDataUnavailable", err)
	}
	if got := len(a.Records()); got != 4 {
		t.Errorf("records after failed reload = %d, want 4", got)
	}
}

func TestAnalytics_Reload_CallerCancelled(t *testing.T) {
	a := NewAnalytics(createTempCSV(t, validCSV), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Reload() error = %v, want nil or context.Canceled", err)
	}

	// A waiter that joins the abandoned read still gets a successful load.
	if err := a.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !a.Available() {
		t.Error("data should be available after reload")
	}
}

func TestAnalytics_ReturnsCopies(t *testing.T) {
	a := NewAnalytics("", nil)
	a.SetData(generated(t, 60))

	regions := a.SalesByRegion()
	regions[0].Sales = -1
	months := a.MonthlyProfit()
	months[0].Sales = -1

	s, err := a.Summary()
	if err != nil {
		t.Fatal(err)
	}
	s.StocksByCategory[0].Stocks = -1
	s.SalesByPaymentMode[0].Sales = -1

	if got := a.SalesByRegion()[0].Sales; got < 0 {
		t.Errorf("SalesByRegion() exposed internal state, got %v", got)
	}
	if got := a.MonthlyProfit()[0].Sales; got < 0 {
		t.Errorf("MonthlyProfit() exposed internal state, got %v", got)
	}
	if got := a.StocksByCategory()[0].Stocks; got < 0 {
		t.Errorf("Summary() exposed StocksByCategory, got %v", got)
	}
	if got := a.SalesByPaymentMode()[0].Sales; got < 0 {
		t.Errorf("Summary() exposed SalesByPaymentMode, got %v", got)
	}
}

func TestAnalytics_Invalidate(t *testing.T) {
	a := NewAnalytics(createTempCSV(t, validCSV), nil)
	if err := a.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	a.Invalidate()

	if a.Available() {
		t.Error("Available() should be false after Invalidate")
	}
	if _, err := a.Summary(); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Summary() error = %v, want ErrDataUnavailable", err)
	}
	if len(a.SalesByRegion()) != 0 {
		t.Error("tables should be empty after Invalidate")
	}

	if err := a.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !a.Available() {
		t.Error("Reload should restore data after Invalidate")
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics(createTempCSV(t, validCSV), nil)
	if err := a.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			if i%3 == 0 {
				if err := a.Reload(context.Background()); err != nil {
					t.Errorf("Reload() error = %v", err)
				}
				return
			}
			_ = a.SalesByRegion()
			_ = a.StocksByCategory()
			_ = a.MonthlyProfit()
			_ = a.SalesByPaymentMode()
			_ = a.Stats()
		}(i)
	}
	wg.Wait()

	if !a.Available() {
		t.Error("data should still be available after concurrent reloads")
	}
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := NewAnalytics("", nil)

	if got := a.SalesByRegion(); got == nil || len(got) != 0 {
		t.Errorf("SalesByRegion() should return empty slice, got %v", got)
	}
	if got := a.StocksByCategory(); got == nil || len(got) != 0 {
		t.Errorf("StocksByCategory() should return empty slice, got %v", got)
	}
	if got := a.MonthlyProfit(); got == nil || len(got) != 0 {
		t.Errorf("MonthlyProfit() should return empty slice, got %v", got)
	}
	if got := a.SalesByPaymentMode(); got == nil || len(got) != 0 {
		t.Errorf("SalesByPaymentMode() should return empty slice, got %v", got)
	}
	if got := a.StocksByPaymentMode(); got == nil || len(got) != 0 {
		t.Errorf("StocksByPaymentMode() should return empty slice, got %v", got)
	}
	if got := a.SalesByCategory(); got == nil || len(got) != 0 {
		t.Errorf("SalesByCategory() should return empty slice, got %v", got)
	}
}

// Benchmark tests for performance validation
func BenchmarkSummarize(b *testing.B) {
	records := generated(b, 730)
	at := time.Now()

	b.ResetTimer()
	for b.Loop() {
		_ = Summarize(records, at)
	}
}

func BenchmarkAnalytics_SalesByRegion(b *testing.B) {
	a := NewAnalytics("", nil)
	a.SetData(generated(b, 730))

	b.ResetTimer()
	for b.Loop() {
		_ = a.SalesByRegion()
	}
}
