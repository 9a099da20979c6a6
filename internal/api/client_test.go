package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcash-app/tcash/internal/apitest"
	"github.com/tcash-app/tcash/internal/model"
)

func newTestClient(t *testing.T) (*Client, *apitest.WalletServer) {
	t.Helper()
	srv := apitest.NewWalletServer(t)
	return NewClient(srv.BaseURL(), nil, zerolog.Nop()), srv
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"user":{"id":"u1","balance":1500.5}}`, "1500.5"},
		{"nested string", `{"user":{"balance":"12.5"}}`, "12.5"},
		{"top level", `{"balance":"42.10"}`, "42.1"},
		{"nested wins", `{"user":{"balance":10},"balance":20}`, "10"},
		{"nested null falls through", `{"user":{"balance":null},"balance":20}`, "20"},
		{"missing", `{"user":{"id":"u1"}}`, "0"},
		{"empty object", `{}`, "0"},
		{"non numeric string", `{"balance":"lots"}`, "0"},
		{"non numeric value", `{"user":{"balance":true},"balance":20}`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(t)
			srv.SetBalanceBody("u1", tt.body)

			got, err := c.Balance(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestBalance_Errors(t *testing.T) {
	c, srv := newTestClient(t)

	_, err := c.Balance(context.Background(), "nobody")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Status)
	assert.Equal(t, "/users/nobody", serr.Path)
	assert.Contains(t, err.Error(), "User not found")

	srv.SetBalanceBody("u1", `not json`)
	_, err = c.Balance(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestTransactions(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetTransactions("u1",
		apitest.Tx(1, "REF-001", "250", "2025-03-01T08:00:00Z", model.TypeCashIn),
		apitest.Tx(2, "REF-002", "99.5", "2025-03-02T08:00:00Z", "cashout"),
	)

	txs, err := c.Transactions(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(1), txs[0].ID)
	assert.Equal(t, "REF-002", txs[1].RefNumber)
	assert.True(t, txs[0].IsCashIn())
	assert.Equal(t, "99.5", txs[1].Amount.String())
}

func TestTransactions_NullAndEmpty(t *testing.T) {
	c, srv := newTestClient(t)

	srv.SetTransactionsBody("u1", `null`)
	txs, err := c.Transactions(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)

	txs, err = c.Transactions(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTransactions_Errors(t *testing.T) {
	c, srv := newTestClient(t)

	srv.SetTransactionsBody("u1", `{"message":"not a list"}`)
	_, err := c.Transactions(context.Background(), "u1")
	require.Error(t, err)

	srv.Fail("transactions", http.StatusInternalServerError)
	_, err = c.Transactions(context.Background(), "u1")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.Status)
	assert.Equal(t, http.MethodGet, serr.Method)
}

func TestDeleteTransaction(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetTransactions("u1", apitest.Tx(7, "REF-007", "10", "2025-03-01T08:00:00Z", model.TypeCashIn))

	require.NoError(t, c.DeleteTransaction(context.Background(), 7))
	assert.Equal(t, []int64{7}, srv.Deleted())
	assert.Empty(t, srv.Transactions("u1"))

	err := c.DeleteTransaction(context.Background(), 7)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Status)
	assert.Equal(t, "/transactions/delete/7", serr.Path)
}

func TestClient_NetworkError(t *testing.T) {
	srv := apitest.NewWalletServer(t)
	base := srv.BaseURL()
	srv.Close()

	c := NewClient(base, nil, zerolog.Nop())
	_, err := c.Transactions(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /transactions/u1")
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Method: "GET", Path: "/users/x", Status: 502}
	assert.Equal(t, "GET /users/x: 502 Bad Gateway", err.Error())
}
