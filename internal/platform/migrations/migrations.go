package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the portal schema. Restaurants and users live in the remote
// API, so sessions are the only local table.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&sessionRecord{})
}

// Session schema mirrors the identity Postgres adapter.
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
