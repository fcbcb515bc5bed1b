package composer

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	CurrencyINR    = "INR"
	currencySymbol = "₹"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders amount rounded to whole rupees with en-IN digit grouping.
func FormatINR(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return "-" + currencySymbol + inrPrinter.Sprintf("%d", -rounded)
	}
	return currencySymbol + inrPrinter.Sprintf("%d", rounded)
}
