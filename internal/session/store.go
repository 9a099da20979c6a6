// Package session publishes the current auth session to the rest of the app.
//
// A Store starts in the Unknown state and resolves once, either from the
// initial session fetch or from the first change reported by the auth
// service, whichever comes first. Every later change is applied in arrival
// order and delivered to subscribers synchronously.
package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tcash-app/tcash/internal/auth"
	"github.com/tcash-app/tcash/internal/model"
)

// State is the coarse authentication state.
type State string

const (
	Unknown         State = "unknown"
	Authenticated   State = "authenticated"
	Unauthenticated State = "unauthenticated"
)

// Snapshot is a read-only view of the session at one point in time.
type Snapshot struct {
	State   State
	Session *model.Session
}

// User returns the signed-in user, or the zero User.
func (s Snapshot) User() model.User {
	if s.Session == nil {
		return model.User{}
	}
	return s.Session.User
}

// AuthService is the part of the auth client the store needs.
type AuthService interface {
	GetSession(ctx context.Context) (*model.Session, error)
	OnAuthStateChange(l auth.Listener) (unsubscribe func())
	StartAutoRefresh()
	StopAutoRefresh()
}

// Listener receives every snapshot the store applies.
type Listener func(Snapshot)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	store  *Store
	id     int
	l      Listener
	active atomic.Bool
}

// Unsubscribe removes the listener. Once it returns the listener is not
// called again. Safe to call more than once.
func (sub *Subscription) Unsubscribe() {
	if !sub.active.Swap(false) {
		return
	}
	sub.store.mu.Lock()
	delete(sub.store.subs, sub.id)
	sub.store.mu.Unlock()
}

// Store holds the session snapshot and fans changes out to subscribers.
type Store struct {
	auth   AuthService
	logger zerolog.Logger

	// deliverMu orders apply+deliver so the latest notification wins.
	deliverMu sync.Mutex

	mu         sync.Mutex
	snap       Snapshot
	resolved   bool
	started    bool
	stopped    bool
	foreground bool
	subs       map[int]*Subscription
	nextID     int
	unsubAuth  func()

	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore creates a Store in the Unknown state. Call Start to resolve it.
func NewStore(a AuthService, logger zerolog.Logger) *Store {
	return &Store{
		auth:   a,
		logger: logger,
		snap:   Snapshot{State: Unknown},
		subs:   make(map[int]*Subscription),
		ready:  make(chan struct{}),
	}
}

// Start subscribes to the auth service, starts auto refresh and fetches the
// initial session in the background. Only the first call has an effect.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.foreground = true
	s.mu.Unlock()

	unsub := s.auth.OnAuthStateChange(s.onAuthChange)
	s.mu.Lock()
	s.unsubAuth = unsub
	s.mu.Unlock()

	s.auth.StartAutoRefresh()
	go s.fetchInitial(ctx)
}

// Stop releases the auth subscription, stops auto refresh and drops all
// subscribers.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	unsub := s.unsubAuth
	s.unsubAuth = nil
	subs := s.subs
	s.subs = make(map[int]*Subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.active.Store(false)
	}
	if unsub != nil {
		unsub()
	}
	s.auth.StopAutoRefresh()
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Wait blocks until the state is resolved or ctx is done.
func (s *Store) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-s.ready:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// Subscribe registers l for every snapshot applied from now on.
func (s *Store) Subscribe(l Listener) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &Subscription{store: s, id: s.nextID, l: l}
	s.nextID++
	if s.stopped {
		return sub
	}
	sub.active.Store(true)
	s.subs[sub.id] = sub
	return sub
}

// SetForeground starts auto refresh when the app comes to the foreground and
// stops it when it goes to the background.
func (s *Store) SetForeground(on bool) {
	s.mu.Lock()
	if !s.started || s.stopped || s.foreground == on {
		s.mu.Unlock()
		return
	}
	s.foreground = on
	s.mu.Unlock()

	if on {
		s.auth.StartAutoRefresh()
	} else {
		s.auth.StopAutoRefresh()
	}
}

func (s *Store) onAuthChange(event model.AuthEvent, sess *model.Session) {
	s.logger.Debug().Str("event", string(event)).Bool("session", sess != nil).Msg("auth state changed")
	s.apply(snapshotOf(sess), true)
}

func (s *Store) fetchInitial(ctx context.Context) {
	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("fetching initial session")
		sess = nil
	}
	s.apply(snapshotOf(sess), false)
}

// apply installs snap and delivers it. An initial fetch result is dropped
// when a change notification already resolved the state.
func (s *Store) apply(snap Snapshot, notification bool) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if s.stopped || (!notification && s.resolved) {
		s.mu.Unlock()
		return
	}
	s.snap = snap
	s.resolved = true
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })

	slices.Sort(ids)
	for _, id := range ids {
		s.mu.Lock()
		sub, ok := s.subs[id]
		s.mu.Unlock()
		if ok && sub.active.Load() {
			sub.l(snap)
		}
	}
}

func snapshotOf(sess *model.Session) Snapshot {
	if sess == nil {
		return Snapshot{State: Unauthenticated}
	}
	return Snapshot{State: Authenticated, Session: sess}
}
