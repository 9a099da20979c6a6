// Package dashboard loads and derives what the home screen shows.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tcash-app/tcash/internal/model"
)

// RecentCount is how many transactions the home screen lists.
const RecentCount = 4

// Source is the part of the wallet API the dashboard reads.
type Source interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Transactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

// View is the committed result of the last refresh.
type View struct {
	Balance      decimal.Decimal
	Transactions []model.Transaction
	Loaded       bool
}

// Recent returns the n newest transactions, or all of them when there are fewer.
func (v View) Recent(n int) []model.Transaction {
	sorted := model.SortByCreatedDesc(v.Transactions)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// HasTransactions reports whether the "view all" link applies.
func (v View) HasTransactions() bool {
	return len(v.Transactions) > 0
}

// Greeting returns the part of day for t: Morning, Afternoon or Evening.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Morning"
	case h < 17:
		return "Afternoon"
	default:
		return "Evening"
	}
}

// Loader fetches the balance and the transaction list together.
type Loader struct {
	src    Source
	logger zerolog.Logger

	mu     sync.Mutex
	view   View
	gen    uint64
	closed bool
}

// NewLoader creates a Loader reading from src.
func NewLoader(src Source, logger zerolog.Logger) *Loader {
	return &Loader{src: src, logger: logger, view: View{Balance: decimal.Zero, Transactions: []model.Transaction{}}}
}

// Focus is called whenever the home screen gains focus.
func (l *Loader) Focus(ctx context.Context, userID string) View {
	return l.Refresh(ctx, userID)
}

// Refresh fetches both resources concurrently and commits them once both have
// answered. Any failure commits a zero balance and an empty list instead.
// An empty userID leaves the view untouched.
func (l *Loader) Refresh(ctx context.Context, userID string) View {
	if userID == "" {
		return l.View()
	}

	l.mu.Lock()
	if l.closed {
		v := l.view
		l.mu.Unlock()
		return v
	}
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	var (
		g       errgroup.Group
		balance decimal.Decimal
		txs     []model.Transaction
	)
	g.Go(func() error {
		b, err := l.src.Balance(ctx, userID)
		if err != nil {
			return fmt.Errorf("fetching balance: %w", err)
		}
		balance = b
		return nil
	})
	g.Go(func() error {
		list, err := l.src.Transactions(ctx, userID)
		if err != nil {
			return fmt.Errorf("fetching transactions: %w", err)
		}
		txs = list
		return nil
	})

	err := g.Wait()
	next := View{Balance: balance, Transactions: txs, Loaded: true}
	if err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("loading dashboard")
		next.Balance = decimal.Zero
		next.Transactions = nil
	}
	if next.Transactions == nil {
		next.Transactions = []model.Transaction{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		// Torn down, or a newer refresh is in flight.
		return l.view
	}
	l.view = next
	return l.view
}

// View returns the last committed view.
func (l *Loader) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Close makes results of in-flight refreshes be dropped.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
