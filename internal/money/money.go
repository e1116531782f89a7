// Package money holds the rounding and formatting policy for every
// monetary figure in the system. Stored values are float64 rounded to two
// decimals with round-half-up semantics; formatting is display only.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// VATRate is the Thai value-added tax rate applied to invoices
const VATRate = 0.07

// Round2 rounds to 2 decimal places with round-half-up semantics,
// matching round(v*100)/100
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round0 rounds to the nearest integer with round-half-up semantics
func Round0(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}

// ClampNonNegative clamps a computed amount at zero. Monetary fields are
// never persisted negative.
func ClampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// VAT returns the tax on a pre-tax total, rounded to 2 decimals
func VAT(beforeTax float64) float64 {
	return Round2(beforeTax * VATRate)
}

// Percent returns part/whole as a percentage rounded to 2 decimals,
// 0 when the whole is 0
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(part / whole * 100)
}

// GrowthPercent returns the whole-number month-over-month growth of current
// against prior, 0 when the prior baseline is 0
func GrowthPercent(current, prior float64) int {
	if prior == 0 {
		return 0
	}
	return int(Round0((current - prior) / prior * 100))
}

// Equal reports whether two amounts agree within the cent tolerance
func Equal(a, b float64) bool {
	return math.Abs(a-b) <= 0.01
}

// FormatCurrency renders an amount for display with a thousands separator.
// Never used for stored or compared values.
func FormatCurrency(amount float64, locale string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	whole := int64(amount)
	cents := int64(Round0((amount - float64(whole)) * 100))
	if cents >= 100 {
		whole++
		cents -= 100
	}

	grouped := groupThousands(whole)

	switch locale {
	case "th", "th-TH":
		return fmt.Sprintf("%s฿%s.%02d", sign, grouped, cents)
	default:
		return fmt.Sprintf("%s%s.%02d", sign, grouped, cents)
	}
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
