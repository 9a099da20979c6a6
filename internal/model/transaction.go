package model

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a wallet transaction.
type TransactionType string

// TypeCashIn is the only type with its own treatment; every other value is a cash out.
const TypeCashIn TransactionType = "cashin"

// Transaction is one row of a user's wallet ledger as served by the API.
type Transaction struct {
	ID        int64           `json:"id"`
	RefNumber string          `json:"refnumber"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"` // raw, parsed on demand
	Type      TransactionType `json:"type"`
}

// IsCashIn reports whether the transaction is a cash in.
func (t Transaction) IsCashIn() bool {
	return t.Type == TypeCashIn
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the API is known to emit.
// Values without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time returns the parsed CreatedAt. ok is false when it cannot be parsed.
func (t Transaction) Time() (time.Time, bool) {
	return ParseTimestamp(t.CreatedAt)
}

// SortByCreatedDesc returns a copy of txs ordered newest first.
// Transactions with unparseable timestamps keep their relative order at the end.
func SortByCreatedDesc(txs []Transaction) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := sorted[i].Time()
		tj, okJ := sorted[j].Time()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return sorted
}
