package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

// SessionStore persists portal sessions in PostgreSQL.
type SessionStore struct {
	db *gorm.DB
}

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// sessionRecord is the portal_sessions row.
type sessionRecord struct {
	Token       string         `gorm:"primaryKey;column:token;size:64"`
	Subject     string         `gorm:"column:subject;index"`
	Name        string         `gorm:"column:name"`
	Email       string         `gorm:"column:email"`
	AccessToken string         `gorm:"column:access_token;type:text"`
	Audience    pq.StringArray `gorm:"column:audience;type:text[]"`
	ExpiresAt   time.Time      `gorm:"column:expires_at;index"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "portal_sessions" }

// Save upserts a session keyed by its cookie token.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if session == nil || strings.TrimSpace(session.Token) == "" {
		return errors.New("session token is required")
	}
	rec := toRecord(session)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"subject", "name", "email", "access_token", "audience", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

// Get loads a live session. Missing and expired sessions yield ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec sessionRecord
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(rec), nil
}

// Delete removes a session by token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "token = ?", token).Error
}

// PurgeExpired removes all expired sessions. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&sessionRecord{})
	return res.RowsAffected, res.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

func toRecord(session *domain.Session) sessionRecord {
	return sessionRecord{
		Token:       session.Token,
		Subject:     session.Identity.Subject,
		Name:        session.Identity.Name,
		Email:       session.Identity.Email,
		AccessToken: session.AccessToken,
		Audience:    pq.StringArray(session.Audience),
		ExpiresAt:   session.ExpiresAt,
	}
}

func toDomain(rec sessionRecord) *domain.Session {
	return &domain.Session{
		Token: rec.Token,
		Identity: domain.Identity{
			Subject: rec.Subject,
			Name:    rec.Name,
			Email:   rec.Email,
		},
		AccessToken: rec.AccessToken,
		Audience:    []string(rec.Audience),
		ExpiresAt:   rec.ExpiresAt,
		CreatedAt:   rec.CreatedAt,
	}
}

var _ ports.SessionStore = (*SessionStore)(nil)
