// Package auth is a client for a GoTrue-compatible authentication service.
//
// It owns the session: it persists it through a storage.Storage, refreshes it
// in the background and reports every change to its listeners.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcash-app/tcash/internal/model"
	"github.com/tcash-app/tcash/internal/storage"
)

const (
	// DefaultTickInterval is how often auto refresh checks the session.
	DefaultTickInterval = 30 * time.Second
	// tickThreshold is how many ticks before expiry a refresh is due.
	tickThreshold = 3
	// expiryMargin is how close to expiry GetSession refreshes instead of returning.
	expiryMargin = tickThreshold * DefaultTickInterval
)

// Listener receives session changes. It runs on the goroutine that caused the
// change and must not call back into the Client synchronously.
type Listener func(event model.AuthEvent, session *model.Session)

// Options configures a Client.
type Options struct {
	URL        string
	AnonKey    string
	Storage    storage.Storage
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// TickInterval overrides DefaultTickInterval.
	TickInterval time.Duration
	// Now overrides time.Now.
	Now func() time.Time
}

// Client talks to the auth service and holds the current session.
type Client struct {
	baseURL    string
	anonKey    string
	storageKey string
	store      storage.Storage
	http       *http.Client
	logger     zerolog.Logger
	tick       time.Duration
	now        func() time.Time

	mu        sync.Mutex
	session   *model.Session
	loaded    bool
	listeners map[int]Listener
	nextID    int

	// emitMu keeps listener deliveries in emission order.
	emitMu sync.Mutex
	// refreshMu serializes token refreshes.
	refreshMu sync.Mutex

	autoMu      sync.Mutex
	autoCancel  context.CancelFunc
	autoStopped chan struct{}
}

// New creates a Client. URL and AnonKey are required.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("auth url is required")
	}
	if opts.AnonKey == "" {
		return nil, errors.New("auth anon key is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing auth url: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		anonKey:    opts.AnonKey,
		storageKey: StorageKey(u),
		store:      opts.Storage,
		http:       opts.HTTPClient,
		logger:     opts.Logger,
		tick:       opts.TickInterval,
		now:        opts.Now,
		listeners:  make(map[int]Listener),
	}
	if c.store == nil {
		c.store = storage.NewMemoryStore()
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.tick <= 0 {
		c.tick = DefaultTickInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// StorageKey returns the key a session for the service at u is stored under,
// "sb-<project ref>-auth-token".
func StorageKey(u *url.URL) string {
	ref, _, _ := strings.Cut(u.Hostname(), ".")
	if ref == "" {
		ref = "local"
	}
	return "sb-" + ref + "-auth-token"
}

// OnAuthStateChange registers l and returns the function that removes it.
func (c *Client) OnAuthStateChange(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// GetSession returns the current session, or nil when signed out.
// A session about to expire is refreshed first.
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	sess, err := c.current()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if !sess.ExpiresWithin(expiryMargin, c.now()) {
		return sess, nil
	}
	return c.refresh(ctx, sess)
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	var sess model.Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{Email: email, Password: password}, &sess)
	if err != nil {
		return nil, err
	}
	if err := c.setSession(&sess); err != nil {
		return nil, err
	}
	c.emit(model.EventSignedIn, &sess)
	return &sess, nil
}

// SignUpResult is the outcome of SignUp. Session is nil when the service
// requires the email address to be confirmed first.
type SignUpResult struct {
	User    model.User
	Session *model.Session
}

// SignUp registers a new user.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{Email: email, Password: password}, &raw); err != nil {
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding signup response: %w", err)
	}
	if sess.AccessToken == "" {
		var user model.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("decoding signup user: %w", err)
		}
		return &SignUpResult{User: user}, nil
	}

	if err := c.setSession(&sess); err != nil {
		return nil, err
	}
	c.emit(model.EventSignedIn, &sess)
	return &SignUpResult{User: sess.User, Session: &sess}, nil
}

// SignOut revokes the session on the server and forgets it locally.
// A server that no longer knows the session counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.current()
	if err != nil {
		return err
	}
	if sess != nil {
		err := c.do(ctx, http.MethodPost, "/auth/v1/logout?scope=global", sess.AccessToken, nil, nil)
		var aerr *Error
		if err != nil && !(errors.As(err, &aerr) && isGone(aerr.Status)) {
			return err
		}
	}
	if err := c.clearSession(); err != nil {
		return err
	}
	c.emit(model.EventSignedOut, nil)
	return nil
}

func isGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

// refresh trades old's refresh token for a new session. A rejected refresh
// token signs the user out.
func (c *Client) refresh(ctx context.Context, old *model.Session) (*model.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if cur, err := c.current(); err == nil && cur != nil && cur.AccessToken != old.AccessToken {
		return cur, nil
	}

	var sess model.Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", refreshRequest{RefreshToken: old.RefreshToken}, &sess)
	if err != nil {
		var aerr *Error
		if errors.As(err, &aerr) && !aerr.Retryable() {
			c.logger.Info().Str("code", aerr.Code).Msg("refresh token rejected, signing out")
			if cerr := c.clearSession(); cerr != nil {
				return nil, cerr
			}
			c.emit(model.EventSignedOut, nil)
		}
		return nil, err
	}

	if err := c.setSession(&sess); err != nil {
		return nil, err
	}
	c.emit(model.EventTokenRefreshed, &sess)
	return &sess, nil
}

func (c *Client) current() (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.session, nil
	}
	raw, ok, err := c.store.GetItem(c.storageKey)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	c.loaded = true
	if !ok {
		return nil, nil
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.AccessToken == "" {
		c.logger.Warn().Err(err).Msg("discarding unreadable stored session")
		_ = c.store.RemoveItem(c.storageKey)
		return nil, nil
	}
	c.session = &sess
	return c.session, nil
}

func (c *Client) setSession(sess *model.Session) error {
	if sess.ExpiresAt == 0 && sess.ExpiresIn > 0 {
		sess.ExpiresAt = c.now().Unix() + sess.ExpiresIn
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SetItem(c.storageKey, string(data)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	c.session = sess
	c.loaded = true
	return nil
}

func (c *Client) clearSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.RemoveItem(c.storageKey); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}
	c.session = nil
	c.loaded = true
	return nil
}

func (c *Client) emit(event model.AuthEvent, sess *model.Session) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		c.mu.Lock()
		l, ok := c.listeners[id]
		c.mu.Unlock()
		if ok {
			l(event, sess)
		}
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// do sends a JSON request. bearer defaults to the anon key.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("auth request failed")
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		aerr := decodeError(resp.StatusCode, data)
		c.logger.Info().Int("status", resp.StatusCode).Str("code", aerr.Code).Str("path", path).Msg("auth request rejected")
		return aerr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding auth response: %w", err)
	}
	return nil
}
