//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/platform/migrations"
)

func setupSessionsPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("portal_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func TestSessionStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupSessionsPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db)
	ctx := context.Background()
	session := &domain.Session{
		Token:       "7c4a8d09-0000-4000-8000-000000000001",
		Identity:    domain.Identity{Subject: "auth0|42", Name: "Ada", Email: "ada@example.com"},
		AccessToken: "access-token",
		Audience:    []string{"portal", "restaurants-api"},
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity, got.Identity)
	assert.Equal(t, []string{"portal", "restaurants-api"}, got.Audience)
	assert.Equal(t, "access-token", got.AccessToken)

	session.AccessToken = "rotated"
	require.NoError(t, store.Save(ctx, session))
	got, err = store.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.AccessToken)

	require.NoError(t, store.Delete(ctx, session.Token))
	_, err = store.Get(ctx, session.Token)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupSessionsPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Session{Token: "expired", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, &domain.Session{Token: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := store.Get(ctx, "expired")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.Get(ctx, "live")
	assert.NoError(t, err)
}
