// Package display formats amounts, types and dates the way the app shows them.
package display

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tcash-app/tcash/internal/model"
)

// Peso is the currency sign.
const Peso = "₱"

const (
	shortDateLayout = "Jan 2, 03:04 PM"
	longDateLayout  = "Jan 2, 2006, 03:04 PM"
)

// Balance formats a balance as "₱ 12.50".
func Balance(d decimal.Decimal) string {
	return Peso + " " + d.StringFixed(2)
}

// Sign is the prefix shown next to a transaction amount. Cash in is shown
// with "-" and everything else with "+".
func Sign(tx model.Transaction) string {
	if tx.IsCashIn() {
		return "-"
	}
	return "+"
}

// HomeAmount formats an amount for the dashboard, "₱-12.00".
func HomeAmount(tx model.Transaction) string {
	return Peso + Sign(tx) + tx.Amount.Abs().StringFixed(2)
}

// ListAmount formats an amount for the transaction list, "-₱12.00".
func ListAmount(tx model.Transaction) string {
	return Sign(tx) + Peso + tx.Amount.Abs().StringFixed(2)
}

// TypeLabel returns "Cash In" or "Cash Out".
func TypeLabel(tx model.Transaction) string {
	if tx.IsCashIn() {
		return "Cash In"
	}
	return "Cash Out"
}

// ShortDate formats raw as "Jan 2, 03:04 PM" in loc (local time when nil).
func ShortDate(raw string, loc *time.Location) string {
	return formatDate(raw, loc, shortDateLayout)
}

// LongDate formats raw as "Jan 2, 2025, 03:04 PM" in loc (local time when nil).
func LongDate(raw string, loc *time.Location) string {
	return formatDate(raw, loc, longDateLayout)
}

// formatDate never fails: unparseable input is shown as is, empty input as "No date".
func formatDate(raw string, loc *time.Location, layout string) string {
	t, ok := model.ParseTimestamp(raw)
	if !ok {
		if raw == "" {
			return "No date"
		}
		return raw
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}
