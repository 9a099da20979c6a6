package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tcash-app/tcash/internal/model"
)

// AnonKey is the key AuthServer accepts.
const AnonKey = "test-anon-key"

type authUser struct {
	user     model.User
	password string
}

// AuthServer fakes the GoTrue endpoints the client uses.
type AuthServer struct {
	*httptest.Server

	mu                  sync.Mutex
	users               map[string]*authUser // by email
	access              map[string]string    // access token -> email
	refresh             map[string]string    // refresh token -> email
	requireConfirmation bool
	expiresIn           int64
	failures            map[string]failure
	hits                map[string]int
}

type failure struct {
	status int
	body   string
}

// NewAuthServer starts an AuthServer that is closed with the test.
func NewAuthServer(t testing.TB) *AuthServer {
	t.Helper()
	s := &AuthServer{
		users:     make(map[string]*authUser),
		access:    make(map[string]string),
		refresh:   make(map[string]string),
		expiresIn: 3600,
		failures:  make(map[string]failure),
		hits:      make(map[string]int),
	}

	r := mux.NewRouter()
	v1 := r.PathPrefix("/auth/v1").Subrouter()
	v1.Use(s.requireAPIKey)
	v1.HandleFunc("/token", s.route("password", s.handlePassword)).Methods(http.MethodPost).Queries("grant_type", "password")
	v1.HandleFunc("/token", s.route("refresh", s.handleRefresh)).Methods(http.MethodPost).Queries("grant_type", "refresh_token")
	v1.HandleFunc("/signup", s.route("signup", s.handleSignup)).Methods(http.MethodPost)
	v1.HandleFunc("/logout", s.route("logout", s.handleLogout)).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers a confirmed user.
func (s *AuthServer) AddUser(email, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &authUser{user: model.User{ID: uuid.NewString(), Email: email}, password: password}
	s.users[email] = u
	return u.user
}

// RequireConfirmation makes signup return a user without a session.
func (s *AuthServer) RequireConfirmation(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireConfirmation = on
}

// SetExpiresIn sets the lifetime in seconds of sessions issued from now on.
func (s *AuthServer) SetExpiresIn(seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresIn = seconds
}

// RevokeAll forgets every issued token, as a server-side sign-out would.
func (s *AuthServer) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]string)
	s.refresh = make(map[string]string)
}

// Fail makes every request to route ("password", "refresh", "signup", "logout")
// answer status with body until cleared with status 0.
func (s *AuthServer) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = failure{status: status, body: body}
}

// Hits returns how many requests reached route.
func (s *AuthServer) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *AuthServer) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != AnonKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *AuthServer) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[name]++
		f, failing := s.failures[name]
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		h(w, r)
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthServer) handlePassword(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Email]
	if !ok || u.password != c.Password {
		writeAuthError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	writeJSON(w, http.StatusOK, s.issueLocked(u.user))
}

func (s *AuthServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.refresh[body.RefreshToken]
	if !ok {
		writeAuthError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
		return
	}
	delete(s.refresh, body.RefreshToken)
	writeJSON(w, http.StatusOK, s.issueLocked(s.users[email].user))
}

func (s *AuthServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}
	if len(c.Password) < 6 {
		writeAuthError(w, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[c.Email]; exists {
		writeAuthError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}
	u := &authUser{user: model.User{ID: uuid.NewString(), Email: c.Email}, password: c.Password}
	s.users[c.Email] = u

	if s.requireConfirmation {
		writeJSON(w, http.StatusOK, u.user)
		return
	}
	writeJSON(w, http.StatusOK, s.issueLocked(u.user))
}

func (s *AuthServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.access[token]
	if !ok {
		writeAuthError(w, http.StatusForbidden, "session_not_found", "Session from session_id claim in JWT does not exist")
		return
	}
	delete(s.access, token)
	for rt, e := range s.refresh {
		if e == email {
			delete(s.refresh, rt)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *AuthServer) issueLocked(u model.User) model.Session {
	sess := model.Session{
		AccessToken:  "at-" + uuid.NewString(),
		TokenType:    "bearer",
		ExpiresIn:    s.expiresIn,
		RefreshToken: "rt-" + uuid.NewString(),
		User:         u,
	}
	s.access[sess.AccessToken] = u.Email
	s.refresh[sess.RefreshToken] = u.Email
	return sess
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "error_code": code, "msg": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
