// Package transactions models the transaction list screen: it loads the
// user's list, filters it by reference number and deletes entries after
// confirmation.
package transactions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tcash-app/tcash/internal/model"
)

// Alert and confirmation texts.
const (
	TitleError         = "Error"
	MsgFetchFailed     = "Failed to fetch transactions"
	TitleConfirmDelete = "Confirm Delete"
	MsgConfirmDelete   = "Are you sure you want to delete this transaction?"
	LabelCancel        = "Cancel"
	LabelDelete        = "Delete"
	TitleDeleted       = "Deleted"
	MsgDeleted         = "Transaction has been deleted."
	MsgDeleteFailed    = "Failed to delete transaction."
	EmptyWithQuery     = "Transaction not yet claimed"
	EmptyWithoutQuery  = "No transactions found"
)

// Source is the part of the wallet API the screen uses.
type Source interface {
	Transactions(ctx context.Context, userID string) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// Prompter shows blocking alerts and two-choice confirmations.
type Prompter interface {
	Alert(title, message string)
	Confirm(title, message, cancel, ok string) bool
}

// Screen holds the authoritative list and the filtered list shown.
type Screen struct {
	src    Source
	prompt Prompter
	logger zerolog.Logger

	refreshing atomic.Bool

	mu      sync.Mutex
	userID  string
	all     []model.Transaction
	shown   []model.Transaction
	query   string
	loading bool
	gen     uint64
	closed  bool
}

// NewScreen creates an empty Screen.
func NewScreen(src Source, prompt Prompter, logger zerolog.Logger) *Screen {
	return &Screen{src: src, prompt: prompt, logger: logger}
}

// Mount binds the screen to userID and loads when it differs from the
// current one. An empty userID does nothing.
func (s *Screen) Mount(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID == "" || userID == s.userID || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.userID = userID
	s.mu.Unlock()
	return s.Load(ctx)
}

// Load fetches the list, newest first, and reapplies the current filter.
// On failure the error alert is shown and both lists are kept.
func (s *Screen) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.userID == "" || s.closed {
		s.mu.Unlock()
		return nil
	}
	userID := s.userID
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()

	txs, err := s.src.Transactions(ctx, userID)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("fetching transactions")
		s.prompt.Alert(TitleError, MsgFetchFailed)
		return fmt.Errorf("fetching transactions: %w", err)
	}
	s.all = model.SortByCreatedDesc(txs)
	s.shown = filter(s.all, s.query)
	s.mu.Unlock()
	return nil
}

// SetFilter narrows the shown list to reference numbers containing query,
// ignoring case. A blank query shows everything.
func (s *Screen) SetFilter(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.shown = filter(s.all, query)
}

// Delete asks for confirmation, deletes id and reloads the list. It reports
// whether the transaction was deleted.
func (s *Screen) Delete(ctx context.Context, id int64) (bool, error) {
	if !s.prompt.Confirm(TitleConfirmDelete, MsgConfirmDelete, LabelCancel, LabelDelete) {
		return false, nil
	}

	if err := s.src.DeleteTransaction(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("id", id).Msg("deleting transaction")
		s.prompt.Alert(TitleError, MsgDeleteFailed)
		return false, fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	s.prompt.Alert(TitleDeleted, MsgDeleted)

	// The reload reports its own failure.
	_ = s.Load(ctx)
	return true, nil
}

// PullToRefresh reloads while Refreshing reports true.
func (s *Screen) PullToRefresh(ctx context.Context) error {
	s.refreshing.Store(true)
	defer s.refreshing.Store(false)
	return s.Load(ctx)
}

// Refreshing reports whether a pull to refresh is running.
func (s *Screen) Refreshing() bool {
	return s.refreshing.Load()
}

// Loading reports whether a load is in flight.
func (s *Screen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Shown returns the filtered list.
func (s *Screen) Shown() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.shown...)
}

// All returns the authoritative list.
func (s *Screen) All() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.all...)
}

// Query returns the current filter.
func (s *Screen) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// EmptyMessage is the text shown instead of an empty list.
func (s *Screen) EmptyMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query != "" {
		return EmptyWithQuery
	}
	return EmptyWithoutQuery
}

// Close tears the screen down. Results of in-flight loads are dropped.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.loading = false
}

func filter(txs []model.Transaction, query string) []model.Transaction {
	if strings.TrimSpace(query) == "" {
		return append([]model.Transaction(nil), txs...)
	}
	q := strings.ToLower(query)
	var out []model.Transaction
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.RefNumber), q) {
			out = append(out, tx)
		}
	}
	return out
}
