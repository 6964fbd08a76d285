package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
)

func sampleRecords() []models.Record {
	d := func(m, day int) time.Time { return time.Date(2023, time.Month(m), day, 0, 0, 0, 0, time.UTC) }
	return []models.Record{
		{Date: d(1, 1), Sales: 150.5, Stocks: 900, Price: 25, Category: "Clothing", Region: "Delhi", PaymentMode: "UPI"},
		{Date: d(1, 2), Sales: 200, Stocks: 800, Price: 25.5, Category: "Books", Region: "Karnataka", PaymentMode: "Card"},
		{Date: d(2, 1), Sales: 49.5, Stocks: 1000, Price: 24.8, Category: "Clothing", Region: "Delhi", PaymentMode: "Cash"},
	}
}

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWrite_Sheets(t *testing.T) {
	s := services.Summarize(sampleRecords(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, nil, nil))

	f := open(t, &buf)
	assert.Equal(t, []string{
		SheetKPIs, SheetSalesByRegion, SheetSalesByCategory, SheetStocksByCategory,
		SheetMonthlyProfit, SheetSalesByPayment, SheetStocksByPayment,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetSalesByRegion)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Region", "Sales"}, rows[0])
	assert.Equal(t, []string{"Delhi", "200"}, rows[1])
	assert.Equal(t, []string{"Karnataka", "200"}, rows[2])

	rows, err = f.GetRows(SheetStocksByCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "800"}, rows[1])
	assert.Equal(t, []string{"Clothing", "1900"}, rows[2])

	rows, err = f.GetRows(SheetMonthlyProfit)
	require.NoError(t, err)
	assert.Len(t, rows, 13)
	assert.Equal(t, "Jan", rows[1][0])

	rows, err = f.GetRows(SheetKPIs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total Sales", "400"}, rows[1])
	assert.Equal(t, []string{"First Date", "2023-01-01"}, rows[5])
}

func TestWrite_Forecast(t *testing.T) {
	s := services.Summarize(sampleRecords(), time.Now())
	fc := &models.Forecast{
		ID:          "f-1",
		HorizonDays: 1,
		Points: []models.ForecastPoint{
			{Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), Estimate: 50, LowerBound: 40, UpperBound: 60, InSample: true},
			{Date: time.Date(2023, 2, 2, 0, 0, 0, 0, time.UTC), Estimate: 55, LowerBound: 45, UpperBound: 65},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, fc, nil))

	f := open(t, &buf)
	assert.Contains(t, f.GetSheetList(), SheetForecast)

	rows, err := f.GetRows(SheetForecast)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2023-02-02", "55", "45", "65"}, rows[2][:4])
}

func TestWrite_Dataset(t *testing.T) {
	records := sampleRecords()
	s := services.Summarize(records, time.Now())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, nil, records))

	f := open(t, &buf)
	rows, err := f.GetRows(SheetDataset)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Sales", "Stocks", "Price", "Category", "Region", "Payment_Mode"}, rows[0])
	assert.Equal(t, []string{"2023-01-01", "150.5", "900", "25", "Clothing", "Delhi", "UPI"}, rows[1])
}

func TestWrite_EmptySummary(t *testing.T) {
	s := services.Summarize(nil, time.Now())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, nil, nil))

	f := open(t, &buf)
	rows, err := f.GetRows(SheetMonthlyProfit)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = f.GetRows(SheetKPIs)
	require.NoError(t, err)
	assert.Equal(t, []string{"First Date"}, rows[5][:1])
}

func TestWrite_NilSummary(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, nil, nil, nil))
	assert.Zero(t, buf.Len())
}
