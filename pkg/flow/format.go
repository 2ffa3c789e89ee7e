package flow

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money renders an amount as "$50,000.00".
func Money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// Dollars renders a decimal amount as "$973.40".
func Dollars(d decimal.Decimal) string {
	return Money(d.InexactFloat64())
}

// Years renders a term in months as "5 years".
func Years(months int) string {
	if months == 12 {
		return "1 year"
	}
	return printer.Sprintf("%d years", months/12)
}

// Percent renders a rate as "6.29%".
func Percent(v float64) string {
	return printer.Sprintf("%.2f%%", v)
}
