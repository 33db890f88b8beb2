package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

// SessionStore is an in-memory SessionStore implementation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]domain.Session{}, now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil || strings.TrimSpace(session.Token) == "" {
		return errors.New("session token is required")
	}
	stored := *session
	stored.Audience = append([]string(nil), session.Audience...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = stored
	return nil
}

// Get returns the session for token. Expired sessions are reported as missing.
func (s *SessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || session.Expired(s.now()) {
		return nil, ports.ErrSessionNotFound
	}
	session.Audience = append([]string(nil), session.Audience...)
	return &session, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context) (int64, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			purged++
		}
	}
	return purged, nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
