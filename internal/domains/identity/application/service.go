// Package application runs the portal side of the hosted login: it starts the
// redirect, verifies the callback and keeps sessions.
package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

// DefaultSessionTTL applies when Config.SessionTTL is not set.
const DefaultSessionTTL = 24 * time.Hour

// Config describes the identity provider tenant.
type Config struct {
	Domain      string
	ClientID    string
	Audience    string
	CallbackURL string
	SessionTTL  time.Duration
}

// CallbackForm is the form_post body sent back by the identity provider.
type CallbackForm struct {
	State            string `form:"state"`
	IDToken          string `form:"id_token"`
	AccessToken      string `form:"access_token"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}

// Service owns login attempts and sessions.
type Service struct {
	cfg      Config
	sessions ports.SessionStore
	verifier ports.TokenVerifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, sessions ports.SessionStore, verifier ports.TokenVerifier, opts ...Option) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	s := &Service{
		cfg:      cfg,
		sessions: sessions,
		verifier: verifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// BeginLogin creates a login attempt and the hosted login URL to redirect to.
func (s *Service) BeginLogin(returnTo string) (domain.LoginAttempt, string) {
	attempt := domain.LoginAttempt{
		State:    s.newID(),
		Nonce:    s.newID(),
		ReturnTo: safeReturnTo(returnTo),
	}
	query := url.Values{}
	query.Set("response_type", "id_token token")
	query.Set("response_mode", "form_post")
	query.Set("client_id", s.cfg.ClientID)
	query.Set("redirect_uri", s.cfg.CallbackURL)
	query.Set("scope", "openid profile email")
	query.Set("state", attempt.State)
	query.Set("nonce", attempt.Nonce)
	if s.cfg.Audience != "" {
		query.Set("audience", s.cfg.Audience)
	}
	return attempt, s.tenantURL("/authorize") + "?" + query.Encode()
}

// CompleteLogin checks the callback against the pending attempt, verifies the
// id_token and stores a new session.
func (s *Service) CompleteLogin(ctx context.Context, attempt domain.LoginAttempt, form CallbackForm) (*domain.Session, error) {
	if form.Error != "" {
		return nil, fmt.Errorf("%w: %s %s", ports.ErrInvalidCallback, form.Error, form.ErrorDescription)
	}
	if attempt.State == "" || subtle.ConstantTimeCompare([]byte(attempt.State), []byte(form.State)) != 1 {
		return nil, fmt.Errorf("%w: state mismatch", ports.ErrInvalidCallback)
	}
	if strings.TrimSpace(form.AccessToken) == "" {
		return nil, fmt.Errorf("%w: access token missing", ports.ErrInvalidCallback)
	}
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: login is not configured", ports.ErrInvalidCallback)
	}
	claims, err := s.verifier.Verify(form.IDToken, attempt.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidCallback, err)
	}
	now := s.now()
	session := &domain.Session{
		Token:       s.newID(),
		Identity:    claims.Identity,
		AccessToken: form.AccessToken,
		Audience:    claims.Audience,
		ExpiresAt:   now.Add(s.cfg.SessionTTL),
		CreatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "login completed", slog.String("subject", session.Identity.Subject))
	return session, nil
}

// Resolve loads the session for a cookie token. Unknown or expired tokens
// resolve to anonymous without an error.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// Logout drops the session and returns the provider's logout URL.
func (s *Service) Logout(ctx context.Context, token, returnTo string) (string, error) {
	if token != "" {
		if err := s.sessions.Delete(ctx, token); err != nil {
			return "", fmt.Errorf("delete session: %w", err)
		}
	}
	query := url.Values{}
	query.Set("client_id", s.cfg.ClientID)
	if returnTo != "" {
		query.Set("returnTo", returnTo)
	}
	return s.tenantURL("/v2/logout") + "?" + query.Encode(), nil
}

func (s *Service) tenantURL(path string) string {
	domainName := strings.TrimSuffix(strings.TrimSpace(s.cfg.Domain), "/")
	if !strings.HasPrefix(domainName, "http://") && !strings.HasPrefix(domainName, "https://") {
		domainName = "https://" + domainName
	}
	return domainName + path
}

// safeReturnTo only keeps local paths.
func safeReturnTo(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	return raw
}
