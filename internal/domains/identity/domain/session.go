package domain

import (
	"strings"
	"time"
)

// Identity is what the identity provider tells us about the signed-in user.
type Identity struct {
	Subject string
	Name    string
	Email   string
}

// DisplayName prefers the name claim and falls back to the email.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	return i.Email
}

// Status is the identity state consumed by pages and navigation.
type Status struct {
	IsAuthenticated bool
	User            *Identity
}

// Anonymous is the status of a visitor without a session.
func Anonymous() Status { return Status{} }

// Session binds a browser cookie token to a verified identity and the access
// token used for the remote API.
type Session struct {
	Token       string
	Identity    Identity
	AccessToken string
	Audience    []string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Status returns the authenticated status for s.
func (s *Session) Status() Status {
	identity := s.Identity
	return Status{IsAuthenticated: true, User: &identity}
}

// LoginAttempt is the state kept between the login redirect and the callback.
type LoginAttempt struct {
	State    string
	Nonce    string
	ReturnTo string
}
