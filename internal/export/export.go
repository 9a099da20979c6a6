// Package export renders a transaction list as CSV, JSON or an aligned table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/tcash-app/tcash/internal/display"
	"github.com/tcash-app/tcash/internal/model"
)

// Format names an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, csv or json)", s)
	}
}

const (
	numFields    = 5
	colID        = 0
	colRefNumber = 1
	colAmount    = 2
	colCreatedAt = 3
	colType      = 4
)

// Header is the CSV header row.
var Header = []string{"id", "refnumber", "amount", "created_at", "type"}

// Write renders txs in format f.
func Write(w io.Writer, f Format, txs []model.Transaction, loc *time.Location) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, txs)
	case FormatJSON:
		return WriteJSON(w, txs)
	default:
		return WriteTable(w, txs, loc)
	}
}

// WriteCSV writes txs with a header row. Amounts keep the API's precision.
func WriteCSV(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(tx.ID, 10)
	row[colRefNumber] = tx.RefNumber
	row[colAmount] = tx.Amount.String()
	row[colCreatedAt] = tx.CreatedAt
	row[colType] = string(tx.Type)
	return row
}

// WriteJSON writes txs as an indented JSON array; an empty list is "[]".
func WriteJSON(w io.Writer, txs []model.Transaction) error {
	if txs == nil {
		txs = []model.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	return nil
}

// WriteTable writes txs as aligned columns the way the list screen shows them.
func WriteTable(w io.Writer, txs []model.Transaction, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREF\tAMOUNT\tDATE\tTYPE")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.RefNumber, display.ListAmount(tx), display.LongDate(tx.CreatedAt, loc), display.TypeLabel(tx))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}
