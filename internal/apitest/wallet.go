package apitest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tcash-app/tcash/internal/model"
)

// WalletServer fakes the wallet REST API under /api.
type WalletServer struct {
	*httptest.Server

	mu       sync.Mutex
	balances map[string]string // raw body per user id
	txs      map[string][]model.Transaction
	rawTxs   map[string]string
	failures map[string]int
	hits     map[string]int
	deleted  []int64
}

// NewWalletServer starts a WalletServer that is closed with the test.
func NewWalletServer(t testing.TB) *WalletServer {
	t.Helper()
	s := &WalletServer{
		balances: make(map[string]string),
		txs:      make(map[string][]model.Transaction),
		rawTxs:   make(map[string]string),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users/{userId}", s.route("balance", s.handleBalance)).Methods(http.MethodGet)
	api.HandleFunc("/transactions/delete/{id}", s.route("delete", s.handleDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/transactions/{userId}", s.route("transactions", s.handleTransactions)).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API base the client should be configured with.
func (s *WalletServer) BaseURL() string {
	return s.URL + "/api"
}

// SetBalanceBody sets the raw JSON answered for GET /users/{userID}.
func (s *WalletServer) SetBalanceBody(userID, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = body
}

// SetTransactions replaces a user's transactions.
func (s *WalletServer) SetTransactions(userID string, txs ...model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[userID] = append([]model.Transaction(nil), txs...)
	delete(s.rawTxs, userID)
}

// SetTransactionsBody makes GET /transactions/{userID} answer body verbatim.
func (s *WalletServer) SetTransactionsBody(userID, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawTxs[userID] = body
}

// Transactions returns the user's current transactions.
func (s *WalletServer) Transactions(userID string) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.txs[userID]...)
}

// Fail makes route ("balance", "transactions", "delete") answer status; 0 clears it.
func (s *WalletServer) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Hits returns how many requests reached route.
func (s *WalletServer) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Deleted returns the ids deleted so far, in order.
func (s *WalletServer) Deleted() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.deleted...)
}

func (s *WalletServer) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[name]++
		status, failing := s.failures[name]
		s.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		h(w, r)
	}
}

func (s *WalletServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	s.mu.Lock()
	body, ok := s.balances[userID]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (s *WalletServer) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	s.mu.Lock()
	raw, isRaw := s.rawTxs[userID]
	txs := append([]model.Transaction{}, s.txs[userID]...)
	s.mu.Unlock()

	if isRaw {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(raw))
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *WalletServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for user, txs := range s.txs {
		for i, tx := range txs {
			if tx.ID == id {
				s.txs[user] = append(txs[:i:i], txs[i+1:]...)
				s.deleted = append(s.deleted, id)
				writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Transaction not found"})
}

// Tx builds a transaction for fixtures.
func Tx(id int64, ref, amount, createdAt string, typ model.TransactionType) model.Transaction {
	return model.Transaction{
		ID:        id,
		RefNumber: ref,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: createdAt,
		Type:      typ,
	}
}
