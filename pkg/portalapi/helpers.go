package portalapi

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the currency every monetary value of the portal is in.
const CurrencyCode = "BRL"

// FormatMoney formats a decimal amount as BRL, e.g. "R$1.234,56".
// Amounts are rounded half away from zero to cents.
func FormatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(CurrencyCode)
	cents := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(cents.IntPart())
}

// FormatGainLoss formats a gain/loss value with +/- prefix.
// Zero renders without a sign.
func FormatGainLoss(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	switch {
	case rounded.IsZero():
		return FormatMoney(decimal.Zero)
	case rounded.IsPositive():
		return "+" + FormatMoney(rounded)
	}
	return FormatMoney(rounded)
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q decimal.Decimal) string {
	return q.String()
}

// ParseDecimal parses user input such as "10", "10.5" or "10,5".
// A comma is accepted as the decimal separator when no dot is present.
func ParseDecimal(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, fmt.Errorf("value is required")
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", input)
	}
	return d, nil
}
