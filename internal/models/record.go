package models

import "time"

// Record is one simulated retail day.
type Record struct {
	Date        time.Time `json:"date"`
	Sales       float64   `json:"sales"`
	Stocks      int       `json:"stocks"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	PaymentMode string    `json:"payment_mode"`
}

type RegionSales struct {
	Region string  `json:"region"`
	Sales  float64 `json:"sales"`
}

type CategorySales struct {
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
}

type CategoryStocks struct {
	Category string `json:"category"`
	Stocks   int64  `json:"stocks"`
}

type PaymentSales struct {
	PaymentMode string  `json:"payment_mode"`
	Sales       float64 `json:"sales"`
}

type PaymentStocks struct {
	PaymentMode string `json:"payment_mode"`
	Stocks      int64  `json:"stocks"`
}

// MonthlyProfit is one calendar-month bucket. Profit and Margin are a display
// simulation derived from a sine curve, not a financial figure.
type MonthlyProfit struct {
	Month     string  `json:"month"`
	Sales     float64 `json:"sales"`
	Margin    float64 `json:"margin"`
	Profit    float64 `json:"profit"`
	HasData   bool    `json:"has_data"`
	Simulated bool    `json:"simulated"`
}

// KPIs backs the headline metric row. SimulatedProfit is a fixed share of
// sales and TotalQuantity is stocks scaled down by 100; neither is real
// accounting data.
type KPIs struct {
	TotalSales       float64           `json:"total_sales"`
	SimulatedProfit  float64           `json:"simulated_profit"`
	TotalQuantity    int64             `json:"total_quantity"`
	RecordCount      int               `json:"record_count"`
	FirstDate        time.Time         `json:"first_date"`
	LastDate         time.Time         `json:"last_date"`
	ForecastAccuracy *ForecastAccuracy `json:"forecast_accuracy,omitempty"`
}

type Summary struct {
	KPIs                KPIs             `json:"kpis"`
	SalesByRegion       []RegionSales    `json:"sales_by_region"`
	SalesByCategory     []CategorySales  `json:"sales_by_category"`
	StocksByCategory    []CategoryStocks `json:"stocks_by_category"`
	MonthlyProfit       []MonthlyProfit  `json:"monthly_profit"`
	SalesByPaymentMode  []PaymentSales   `json:"sales_by_payment_mode"`
	StocksByPaymentMode []PaymentStocks  `json:"stocks_by_payment_mode"`
	RecordCount         int              `json:"record_count"`
	LoadedAt            time.Time        `json:"loaded_at"`
}
