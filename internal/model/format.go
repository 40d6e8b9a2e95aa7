package model

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatPrice renders a price in reais with two decimals.
func FormatPrice(price float64) string {
	return pricePrinter.Sprintf("R$ %.2f", price)
}
