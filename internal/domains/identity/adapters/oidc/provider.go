package oidc

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/application"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

const (
	// SessionCookieName holds the opaque session token.
	SessionCookieName = "portal_session"
	// LoginCookieName holds the pending login attempt between redirect and callback.
	LoginCookieName = "portal_login"

	loginAttemptTTL = 10 * time.Minute
)

// Provider is the identity status collaborator backed by the hosted login.
type Provider struct {
	service *application.Service
	secure  bool
}

// NewProvider wraps the identity service. secure marks cookies Secure.
func NewProvider(service *application.Service, secure bool) *Provider {
	return &Provider{service: service, secure: secure}
}

// Status reads the session resolved by the session middleware.
func (p *Provider) Status(ctx context.Context) domain.Status {
	session, ok := ports.SessionFrom(ctx)
	if !ok {
		return domain.Anonymous()
	}
	return session.Status()
}

// LoginWithRedirect remembers the attempt in a short-lived cookie and redirects
// to the hosted login page.
func (p *Provider) LoginWithRedirect(w http.ResponseWriter, r *http.Request) error {
	if p == nil || p.service == nil {
		return errors.New("identity provider not configured")
	}
	attempt, target := p.service.BeginLogin(r.FormValue("returnTo"))
	http.SetCookie(w, p.loginCookie(encodeAttempt(attempt), loginAttemptTTL))
	http.Redirect(w, r, target, http.StatusSeeOther)
	return nil
}

// ReadLoginAttempt returns the pending attempt and clears its cookie.
func (p *Provider) ReadLoginAttempt(w http.ResponseWriter, r *http.Request) (domain.LoginAttempt, error) {
	cookie, err := r.Cookie(LoginCookieName)
	http.SetCookie(w, p.loginCookie("", -1))
	if err != nil {
		return domain.LoginAttempt{}, ports.ErrInvalidCallback
	}
	return decodeAttempt(cookie.Value)
}

// SetSession issues the session cookie.
func (p *Provider) SetSession(w http.ResponseWriter, session *domain.Session) {
	http.SetCookie(w, p.cookie(SessionCookieName, session.Token, time.Until(session.ExpiresAt)))
}

// ClearSession expires the session cookie.
func (p *Provider) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie(SessionCookieName, "", -1))
}

func (p *Provider) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}

// loginCookie must survive the provider's cross-site form_post, which Lax
// cookies do not.
func (p *Provider) loginCookie(value string, ttl time.Duration) *http.Cookie {
	c := p.cookie(LoginCookieName, value, ttl)
	if p.secure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func encodeAttempt(attempt domain.LoginAttempt) string {
	values := url.Values{}
	values.Set("s", attempt.State)
	values.Set("n", attempt.Nonce)
	values.Set("r", attempt.ReturnTo)
	return url.QueryEscape(values.Encode())
}

func decodeAttempt(raw string) (domain.LoginAttempt, error) {
	unescaped, err := url.QueryUnescape(raw)
	if err != nil {
		return domain.LoginAttempt{}, ports.ErrInvalidCallback
	}
	values, err := url.ParseQuery(unescaped)
	if err != nil || values.Get("s") == "" || values.Get("n") == "" {
		return domain.LoginAttempt{}, ports.ErrInvalidCallback
	}
	return domain.LoginAttempt{State: values.Get("s"), Nonce: values.Get("n"), ReturnTo: values.Get("r")}, nil
}

var _ ports.Provider = (*Provider)(nil)
