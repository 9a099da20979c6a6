// Package gate turns the session state into navigation decisions for a
// route group.
package gate

import (
	"sync"

	"github.com/tcash-app/tcash/internal/session"
)

// Group is a set of routes guarded by one gate.
type Group string

const (
	// Public holds the sign-in and sign-up routes.
	Public Group = "public"
	// Protected holds the routes that need a session.
	Protected Group = "protected"
)

// Decision is what a gate wants rendered. Exactly one of Loading, Show and
// Redirect is set.
type Decision struct {
	Loading  bool
	Show     Group
	Redirect Group
}

// Decide is the navigation policy for a gate guarding guard in state.
func Decide(state session.State, guard Group) Decision {
	switch state {
	case session.Authenticated:
		if guard == Public {
			return Decision{Redirect: Protected}
		}
		return Decision{Show: Protected}
	case session.Unauthenticated:
		if guard == Protected {
			return Decision{Redirect: Public}
		}
		return Decision{Show: Public}
	default:
		return Decision{Loading: true}
	}
}

// Source is the part of session.Store a Gate subscribes to.
type Source interface {
	Snapshot() session.Snapshot
	Subscribe(l session.Listener) *session.Subscription
}

// Gate re-decides for its group on every session change.
type Gate struct {
	guard    Group
	onChange func(Decision)
	sub      *session.Subscription

	mu       sync.Mutex
	state    session.State
	decision Decision
}

// New subscribes a gate for guard to src. onChange, if not nil, is called
// with every new decision, in notification order.
func New(src Source, guard Group, onChange func(Decision)) *Gate {
	g := &Gate{guard: guard, onChange: onChange}
	g.sub = src.Subscribe(g.update)

	// Subscribed first so no change slips between the two.
	g.mu.Lock()
	if g.state == "" {
		g.state = src.Snapshot().State
		g.decision = Decide(g.state, guard)
	}
	g.mu.Unlock()
	return g
}

// Guard returns the group the gate guards.
func (g *Gate) Guard() Group {
	return g.guard
}

// Decision returns the latest decision.
func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Close releases the subscription.
func (g *Gate) Close() {
	g.sub.Unsubscribe()
}

func (g *Gate) update(snap session.Snapshot) {
	d := Decide(snap.State, g.guard)
	g.mu.Lock()
	g.state = snap.State
	g.decision = d
	g.mu.Unlock()

	if g.onChange != nil {
		g.onChange(d)
	}
}
