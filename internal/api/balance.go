package api

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// balanceResponse accepts both {"user":{"balance":..}} and {"balance":..}.
type balanceResponse struct {
	User *struct {
		Balance json.RawMessage `json:"balance"`
	} `json:"user"`
	Balance json.RawMessage `json:"balance"`
}

// amount picks the nested balance, then the top-level one. The first present
// value wins; one that is not a number yields zero.
func (b balanceResponse) amount() decimal.Decimal {
	var raw json.RawMessage
	switch {
	case b.User != nil && present(b.User.Balance):
		raw = b.User.Balance
	case present(b.Balance):
		raw = b.Balance
	default:
		return decimal.Zero
	}
	return parseAmount(raw)
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func parseAmount(raw json.RawMessage) decimal.Decimal {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero
	}
	return d
}
