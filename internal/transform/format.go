package transform

import (
	"time"

	"github.com/siampay/installment-api/internal/money"
)

// StandardizeDates returns a copy of the object with parallel
// <field>_formatted and <field>_display keys for every recognized date
// field. Canonical values stay machine dates.
func StandardizeDates(obj map[string]any, dateFields ...string) map[string]any {
	if obj == nil {
		return nil
	}
	if len(dateFields) == 0 {
		dateFields = []string{"createdAt", "updatedAt", "dueDate", "completedDate"}
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	for _, field := range dateFields {
		v, ok := out[field]
		if !ok {
			continue
		}
		var t time.Time
		switch d := v.(type) {
		case time.Time:
			t = d
		case *time.Time:
			if d == nil {
				continue
			}
			t = *d
		default:
			continue
		}
		out[field+"_formatted"] = t.Format("2006-01-02 15:04:05")
		out[field+"_display"] = t.Format("02/01/2006")
	}

	return out
}

// StandardizeAmounts returns a copy with negative amounts clamped and
// parallel <field>_formatted / <field>_display keys added. Canonical
// values stay numbers.
func StandardizeAmounts(obj map[string]any, amountFields ...string) map[string]any {
	if obj == nil {
		return nil
	}
	if len(amountFields) == 0 {
		amountFields = []string{"totalAmount", "paidAmount", "remainingAmount", "monthlyPayment"}
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	for _, field := range amountFields {
		v, ok := out[field]
		if !ok {
			continue
		}
		var amount float64
		switch n := v.(type) {
		case float64:
			amount = n
		case float32:
			amount = float64(n)
		case int:
			amount = float64(n)
		case int64:
			amount = float64(n)
		default:
			continue
		}
		amount = money.ClampNonNegative(amount)
		out[field] = amount
		out[field+"_formatted"] = money.FormatCurrency(amount, "th-TH")
		out[field+"_display"] = money.FormatCurrency(amount, "")
	}

	return out
}
