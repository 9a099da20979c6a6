package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcash-app/tcash/internal/model"
)

func sample() []model.Transaction {
	return []model.Transaction{
		{ID: 2, RefNumber: "TC-2002", Amount: decimal.RequireFromString("50.25"), CreatedAt: "2025-03-03T08:00:00Z", Type: "cashout"},
		{ID: 1, RefNumber: "TC, quoted", Amount: decimal.RequireFromString("100"), CreatedAt: "", Type: model.TypeCashIn},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"2", "TC-2002", "50.25", "2025-03-03T08:00:00Z", "cashout"}, records[1])
	assert.Equal(t, []string{"1", "TC, quoted", "100", "", "cashin"}, records[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,refnumber,amount,created_at,type\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "TC-2002", got[0]["refnumber"])
	assert.Equal(t, "50.25", got[0]["amount"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sample(), time.UTC))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "+₱50.25")
	assert.Contains(t, lines[1], "Mar 3, 2025, 08:00 AM")
	assert.Contains(t, lines[1], "Cash Out")
	assert.Contains(t, lines[2], "-₱100.00")
	assert.Contains(t, lines[2], "No date")
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "csv", "json"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}
