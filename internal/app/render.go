package app

import (
	"fmt"
	"io"
	"time"

	"github.com/tcash-app/tcash/internal/dashboard"
	"github.com/tcash-app/tcash/internal/display"
	"github.com/tcash-app/tcash/internal/export"
	"github.com/tcash-app/tcash/internal/model"
	"github.com/tcash-app/tcash/internal/transactions"
)

func (s *Shell) render() {
	switch s.route {
	case RouteSignIn:
		s.renderCredentials("Sign in", "signin, signup, dismiss, quit")
	case RouteSignUp:
		s.renderCredentials("Sign up", "signup, signin, dismiss, quit")
	case RouteHome:
		RenderHome(s.out, s.deps.Store.Snapshot().User(), s.dash.View(), s.deps.Now(), s.location())
		fmt.Fprintln(s.out, "Commands: refresh, transactions, signout, quit")
	case RouteTransactions:
		RenderTransactions(s.out, s.list, s.location())
		fmt.Fprintln(s.out, "Commands: search [ref], delete <id>, refresh, home, signout, quit")
	}
}

func (s *Shell) renderCredentials(title, commands string) {
	fmt.Fprintf(s.out, "\n%s\n", title)
	if msg := s.deps.Flow.Banner().Text(); msg != "" {
		fmt.Fprintf(s.out, "[%s] (dismiss)\n", msg)
	}
	fmt.Fprintf(s.out, "Commands: %s\n", commands)
}

// RenderHome writes the dashboard for user.
func RenderHome(w io.Writer, user model.User, v dashboard.View, now time.Time, loc *time.Location) {
	fmt.Fprintf(w, "\nHi, %s!\n", user.DisplayName())
	fmt.Fprintf(w, "Good %s!\n", dashboard.Greeting(now.In(loc)))
	fmt.Fprintf(w, "Balance: %s\n\n", display.Balance(v.Balance))

	fmt.Fprintln(w, "Recent transactions")
	recent := v.Recent(dashboard.RecentCount)
	if len(recent) == 0 {
		fmt.Fprintln(w, "  No recent transactions")
	}
	for _, tx := range recent {
		fmt.Fprintf(w, "  Ref: %-16s %s\n", tx.RefNumber, display.HomeAmount(tx))
		fmt.Fprintf(w, "  %-21s %s\n", display.ShortDate(tx.CreatedAt, loc), display.TypeLabel(tx))
	}
	if v.HasTransactions() {
		fmt.Fprintln(w, "  View all transactions: transactions")
	}
}

// RenderTransactions writes the filtered list of screen, or its empty state.
func RenderTransactions(w io.Writer, screen *transactions.Screen, loc *time.Location) {
	fmt.Fprintln(w, "\nTransactions")
	if q := screen.Query(); q != "" {
		fmt.Fprintf(w, "Search: %s\n", q)
	}

	shown := screen.Shown()
	if len(shown) == 0 {
		fmt.Fprintf(w, "  %s\n", screen.EmptyMessage())
		return
	}
	_ = export.WriteTable(w, shown, loc)
}
