package handlers

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// formatMoney renders v with two decimals and thousands separators.
func formatMoney(v float64) string {
	return moneyPrinter.Sprintf("%.2f", v)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
