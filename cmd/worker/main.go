package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-restaurant-portal/internal/app/api"
	"github.com/Apurer/go-gin-restaurant-portal/internal/clients/http/myapi"
	identitypostgres "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/persistence/postgres"
	platformobservability "github.com/Apurer/go-gin-restaurant-portal/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-restaurant-portal/internal/platform/postgres"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/activities/restaurants"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/workflows/restaurants"
)

func main() {
	ctx := context.Background()
	const serviceName = "restaurant-portal-worker"
	api.LoadDotEnv()
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db == nil {
		logger.Error("worker needs POSTGRES_DSN to resolve the sessions that submitted restaurants")
		os.Exit(1)
	}
	remote, err := myapi.New(cfg.APIBaseURL, myapi.WithTimeout(cfg.APITimeout), myapi.WithLogger(logger))
	if err != nil {
		logger.Error("failed to configure remote API client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activities := restaurantactivities.NewActivities(remote, identitypostgres.NewSessionStore(db))

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, restaurantworkflows.SubmissionTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(restaurantworkflows.SubmissionWorkflow, workflow.RegisterOptions{Name: restaurantworkflows.SubmissionWorkflowName})
	w.RegisterActivityWithOptions(activities.DeliverRestaurant, activity.RegisterOptions{Name: restaurantactivities.DeliverRestaurantActivityName})

	logger.Info("worker listening", slog.String("taskQueue", restaurantworkflows.SubmissionTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
