package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

func TestSessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	session := &domain.Session{
		Token:       "tok",
		Identity:    domain.Identity{Subject: "auth0|1", Email: "a@b.c"},
		AccessToken: "access",
		Audience:    []string{"api"},
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	require.NoError(t, store.Save(ctx, session))
	session.Audience[0] = "mutated"

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, []string{"api"}, got.Audience)

	require.NoError(t, store.Delete(ctx, "tok"))
	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_ExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &domain.Session{Token: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, &domain.Session{Token: "live", ExpiresAt: now.Add(time.Minute)}))

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	_, err = store.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestSessionStore_RejectsEmptyToken(t *testing.T) {
	assert.Error(t, NewSessionStore().Save(context.Background(), &domain.Session{}))
}
