package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcash-app/tcash/internal/auth"
	"github.com/tcash-app/tcash/internal/model"
)

// fakeAuth lets a test decide when the initial fetch returns.
type fakeAuth struct {
	mu       sync.Mutex
	listener auth.Listener
	release  chan struct{}
	session  *model.Session
	err      error
	starts   int
	stops    int
	unsubbed bool
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{release: make(chan struct{})}
}

func (f *fakeAuth) GetSession(ctx context.Context) (*model.Session, error) {
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.err
}

func (f *fakeAuth) OnAuthStateChange(l auth.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubbed = true
		f.listener = nil
	}
}

func (f *fakeAuth) StartAutoRefresh() { f.mu.Lock(); f.starts++; f.mu.Unlock() }
func (f *fakeAuth) StopAutoRefresh()  { f.mu.Lock(); f.stops++; f.mu.Unlock() }

func (f *fakeAuth) emit(event model.AuthEvent, sess *model.Session) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l(event, sess)
	}
}

func (f *fakeAuth) counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func testSession(email string) *model.Session {
	return &model.Session{AccessToken: "at-" + email, User: model.User{ID: "id-" + email, Email: email}}
}

func waitReady(t *testing.T, s *Store) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := s.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestStore_UnknownUntilInitialFetch(t *testing.T) {
	fa := newFakeAuth()
	fa.session = testSession("juan@example.com")
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	assert.Equal(t, Unknown, s.Snapshot().State)
	early, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Wait(early)
	require.ErrorIs(t, err, context.DeadlineExceeded, "resolved before the initial fetch returned")

	close(fa.release)
	snap := waitReady(t, s)
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, "juan@example.com", snap.User().Email)
}

func TestStore_InitialFetchWithoutSession(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	snap := waitReady(t, s)
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Equal(t, model.User{}, snap.User())
}

func TestStore_InitialFetchErrorResolvesUnauthenticated(t *testing.T) {
	fa := newFakeAuth()
	fa.err = errors.New("network down")
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	assert.Equal(t, Unauthenticated, waitReady(t, s).State)
}

func TestStore_NotificationBeforeInitialFetchWins(t *testing.T) {
	fa := newFakeAuth()
	s := NewStore(fa, zerolog.Nop())

	var got []State
	var mu sync.Mutex
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		got = append(got, snap.State)
		mu.Unlock()
	})
	s.Start(context.Background())
	defer s.Stop()

	fa.emit(model.EventSignedIn, testSession("juan@example.com"))
	assert.Equal(t, Authenticated, s.Snapshot().State)

	// The stale initial fetch finds no session; it must not overwrite.
	close(fa.release)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Authenticated, s.Snapshot().State)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Authenticated}, got)
}

func TestStore_NotificationsAppliedInOrder(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()
	waitReady(t, s)

	var got []State
	s.Subscribe(func(snap Snapshot) { got = append(got, snap.State) })

	fa.emit(model.EventSignedIn, testSession("a@example.com"))
	fa.emit(model.EventTokenRefreshed, testSession("a@example.com"))
	fa.emit(model.EventSignedOut, nil)

	assert.Equal(t, []State{Authenticated, Authenticated, Unauthenticated}, got)
	assert.Equal(t, Unauthenticated, s.Snapshot().State)
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()
	waitReady(t, s)

	calls := 0
	sub := s.Subscribe(func(Snapshot) { calls++ })
	fa.emit(model.EventSignedIn, testSession("a@example.com"))
	sub.Unsubscribe()
	sub.Unsubscribe()
	fa.emit(model.EventSignedOut, nil)

	assert.Equal(t, 1, calls)
}

func TestStore_UnsubscribeDuringDelivery(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()
	waitReady(t, s)

	var second *Subscription
	secondCalls := 0
	s.Subscribe(func(Snapshot) { second.Unsubscribe() })
	second = s.Subscribe(func(Snapshot) { secondCalls++ })

	fa.emit(model.EventSignedIn, testSession("a@example.com"))
	assert.Zero(t, secondCalls, "a listener removed by an earlier one is skipped")
}

func TestStore_StopReleasesEverything(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	waitReady(t, s)

	calls := 0
	s.Subscribe(func(Snapshot) { calls++ })
	s.Stop()
	s.Stop()

	fa.emit(model.EventSignedIn, testSession("a@example.com"))
	assert.Zero(t, calls)
	assert.True(t, fa.unsubbed)
	starts, stops := fa.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestStore_StartIsIdempotent(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())
	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	starts, _ := fa.counts()
	assert.Equal(t, 1, starts)
}

func TestStore_SetForeground(t *testing.T) {
	fa := newFakeAuth()
	close(fa.release)
	s := NewStore(fa, zerolog.Nop())

	s.SetForeground(false) // not started, ignored
	s.Start(context.Background())
	defer s.Stop()

	s.SetForeground(true) // already foreground
	s.SetForeground(false)
	s.SetForeground(false)
	s.SetForeground(true)

	starts, stops := fa.counts()
	assert.Equal(t, 2, starts)
	assert.Equal(t, 1, stops)
}

func TestStore_WaitHonorsContext(t *testing.T) {
	fa := newFakeAuth()
	s := NewStore(fa, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	defer s.Stop()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	snap, err := s.Wait(waitCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Unknown, snap.State)
	cancel()
}
