// Package app is the interactive tcash shell. It plays the role of the
// mobile navigator: the public and protected gates decide which route group
// may be shown, and the shell renders one route at a time and reads one
// command per turn.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcash-app/tcash/internal/authflow"
	"github.com/tcash-app/tcash/internal/dashboard"
	"github.com/tcash-app/tcash/internal/gate"
	"github.com/tcash-app/tcash/internal/prompt"
	"github.com/tcash-app/tcash/internal/session"
	"github.com/tcash-app/tcash/internal/transactions"
)

// Route is one screen of the shell.
type Route string

const (
	RouteSignIn       Route = "sign-in"
	RouteSignUp       Route = "sign-up"
	RouteHome         Route = "home"
	RouteTransactions Route = "transactions"
)

// Group returns the route group r belongs to.
func (r Route) Group() gate.Group {
	switch r {
	case RouteHome, RouteTransactions:
		return gate.Protected
	default:
		return gate.Public
	}
}

// entry is where a redirect into g lands.
func entry(g gate.Group) Route {
	if g == gate.Protected {
		return RouteHome
	}
	return RouteSignIn
}

// WalletAPI is what the home and transactions screens read.
type WalletAPI interface {
	dashboard.Source
	transactions.Source
}

// Deps are the collaborators of a Shell.
type Deps struct {
	Store  *session.Store
	Flow   *authflow.Flow
	API    WalletAPI
	Prompt *prompt.Terminal
	Logger zerolog.Logger
	// Location is used for dates, time.Local when nil.
	Location *time.Location
	// Now overrides time.Now for the greeting.
	Now func() time.Time
}

// Shell runs the interactive loop.
type Shell struct {
	deps Deps
	out  io.Writer

	public    *gate.Gate
	protected *gate.Gate
	wake      chan struct{}

	route     Route
	dash      *dashboard.Loader
	list      *transactions.Screen
	announced bool
}

// NewShell subscribes both gates to the store. Release them with Close.
func NewShell(deps Deps) *Shell {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Shell{
		deps:  deps,
		out:   deps.Prompt.Out(),
		wake:  make(chan struct{}, 1),
		route: RouteSignIn,
		dash:  dashboard.NewLoader(deps.API, deps.Logger),
	}
	s.public = gate.New(deps.Store, gate.Public, s.poke)
	s.protected = gate.New(deps.Store, gate.Protected, s.poke)
	return s
}

// Route returns the current route.
func (s *Shell) Route() Route {
	return s.route
}

// Close releases the gates and tears the current screen down.
func (s *Shell) Close() {
	s.public.Close()
	s.protected.Close()
	s.leave()
	s.dash.Close()
}

func (s *Shell) poke(gate.Decision) {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Shell) gateFor(r Route) *gate.Gate {
	if r.Group() == gate.Protected {
		return s.protected
	}
	return s.public
}

// Run drives the shell until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		d := s.gateFor(s.route).Decision()
		switch {
		case d.Loading:
			if !s.announced {
				fmt.Fprintln(s.out, "Loading...")
				s.announced = true
			}
			select {
			case <-s.wake:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		case d.Redirect != "":
			s.deps.Logger.Debug().Str("from", string(s.route)).Str("to", string(d.Redirect)).Msg("gate redirect")
			s.navigate(ctx, entry(d.Redirect))
			continue
		}
		s.announced = false

		s.render()
		line, err := s.deps.Prompt.ReadLine(string(s.route) + ">")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading command: %w", err)
		}
		if quit := s.handle(ctx, line); quit {
			return nil
		}
	}
}

// navigate leaves the current screen and enters r.
func (s *Shell) navigate(ctx context.Context, r Route) {
	if r == s.route {
		return
	}
	s.leave()
	s.route = r

	userID := s.deps.Store.Snapshot().User().ID
	switch r {
	case RouteHome:
		s.dash.Focus(ctx, userID)
	case RouteTransactions:
		s.list = transactions.NewScreen(s.deps.API, s.deps.Prompt, s.deps.Logger)
		_ = s.list.Mount(ctx, userID)
	}
}

func (s *Shell) leave() {
	if s.list != nil {
		s.list.Close()
		s.list = nil
	}
}

// handle runs one command line; it reports whether the shell should exit.
func (s *Shell) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	if cmd == "" {
		return false
	}
	if cmd == "quit" || cmd == "exit" {
		return true
	}
	// The session may have changed while the line was being read.
	if d := s.gateFor(s.route).Decision(); d.Loading || d.Redirect != "" {
		s.deps.Logger.Debug().Str("route", string(s.route)).Str("command", cmd).Msg("dropping command after session change")
		return false
	}

	switch s.route {
	case RouteSignIn, RouteSignUp:
		s.handlePublic(ctx, cmd)
	case RouteHome:
		s.handleHome(ctx, cmd)
	case RouteTransactions:
		s.handleTransactions(ctx, cmd, arg)
	}
	return false
}

func (s *Shell) handlePublic(ctx context.Context, cmd string) {
	switch cmd {
	case "signin":
		if s.route != RouteSignIn {
			s.navigate(ctx, RouteSignIn)
			return
		}
		email, password, ok := s.readCredentials()
		if !ok {
			return
		}
		// Success is picked up by the public gate on the next turn.
		_ = s.deps.Flow.SignIn(ctx, email, password)
	case "signup":
		if s.route != RouteSignUp {
			s.navigate(ctx, RouteSignUp)
			return
		}
		email, password, ok := s.readCredentials()
		if !ok {
			return
		}
		_, _ = s.deps.Flow.SignUp(ctx, email, password)
	case "dismiss":
		s.deps.Flow.Banner().Dismiss()
	default:
		s.unknown(cmd)
	}
}

func (s *Shell) handleHome(ctx context.Context, cmd string) {
	switch cmd {
	case "refresh":
		s.dash.Refresh(ctx, s.deps.Store.Snapshot().User().ID)
	case "transactions":
		s.navigate(ctx, RouteTransactions)
	case "signout":
		s.signOut(ctx)
	default:
		s.unknown(cmd)
	}
}

func (s *Shell) handleTransactions(ctx context.Context, cmd, arg string) {
	switch cmd {
	case "search":
		s.list.SetFilter(arg)
	case "delete":
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			fmt.Fprintf(s.out, "usage: delete <id>\n")
			return
		}
		_, _ = s.list.Delete(ctx, id)
	case "refresh":
		_ = s.list.PullToRefresh(ctx)
	case "home":
		s.navigate(ctx, RouteHome)
	case "signout":
		s.signOut(ctx)
	default:
		s.unknown(cmd)
	}
}

func (s *Shell) signOut(ctx context.Context) {
	ok, _ := s.deps.Flow.SignOut(ctx)
	if ok {
		s.navigate(ctx, RouteSignIn)
	}
}

func (s *Shell) readCredentials() (email, password string, ok bool) {
	email, err := s.deps.Prompt.ReadLine("Email")
	if err != nil {
		return "", "", false
	}
	password, err = s.deps.Prompt.ReadPassword("Password")
	if err != nil {
		return "", "", false
	}
	return email, password, true
}

func (s *Shell) unknown(cmd string) {
	fmt.Fprintf(s.out, "unknown command %q\n", cmd)
}

func (s *Shell) location() *time.Location {
	if s.deps.Location != nil {
		return s.deps.Location
	}
	return time.Local
}
