package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// en-IN groups the last three digits, then every two: 1,23,45,678.
var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount the way the counter screen shows it: "₹1,23,456".
// Whole amounts carry no fraction digits, anything else carries two.
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	if amount.Equal(amount.Truncate(0)) {
		return sign + "₹" + inrPrinter.Sprint(number.Decimal(amount.IntPart()))
	}
	digits := number.Decimal(amount.Round(2).InexactFloat64(),
		number.MinFractionDigits(2), number.MaxFractionDigits(2))
	return sign + "₹" + inrPrinter.Sprint(digits)
}
