package model

import (
	"strings"
	"time"
)

// User is the identity embedded in a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// DisplayName returns the part of the email before "@", or "User".
func (u User) DisplayName() string {
	name, _, _ := strings.Cut(u.Email, "@")
	if name == "" {
		return "User"
	}
	return name
}

// Session is the token bundle issued by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns ExpiresAt as a time. Zero means the session never expires.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// ExpiresWithin reports whether the session expires within d of now.
func (s *Session) ExpiresWithin(d time.Duration, now time.Time) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return exp.Sub(now) < d
}

// AuthEvent names a session change reported by the auth service.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)
