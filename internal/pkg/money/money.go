// Package money holds TND amount helpers shared by quotes, invoices and payments.
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code every stored amount is expressed in.
const Currency = "TND"

var (
	amountPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	// minor unit exponents for the currencies the providers are configured with
	exponents = map[string]int32{
		"tnd": 3,
		"usd": 2,
		"eur": 2,
	}
)

// Format renders an amount the way invoices print it: 1234.500 DT.
func Format(d decimal.Decimal) string {
	return d.StringFixed(3) + " DT"
}

// MinorUnits converts to the integer amount providers expect (millimes for TND).
func MinorUnits(d decimal.Decimal, currency string) int64 {
	exp, ok := exponents[strings.ToLower(currency)]
	if !ok {
		exp = 2
	}
	return d.Shift(exp).Round(0).IntPart()
}

// ParseLoose extracts the first number in free text ("400 TND", "1 250,5 DT").
// A comma is read as the decimal separator.
func ParseLoose(text string) (decimal.Decimal, bool) {
	compact := strings.ReplaceAll(text, " ", "")
	m := amountPattern.FindString(compact)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", "."))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
