package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	identitypostgres "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-restaurant-portal/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-restaurant-portal/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge sessions")
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to migrate session schema: %v", err)
	}

	purged, err := identitypostgres.NewSessionStore(db).PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}
	logger.Info("session purge completed", slog.Int64("purged", purged))
}
