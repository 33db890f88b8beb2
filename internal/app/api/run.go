package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	portalserver "github.com/Apurer/go-gin-restaurant-portal/go"
	"github.com/Apurer/go-gin-restaurant-portal/internal/clients/http/myapi"
	identitymemory "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/memory"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/oidc"
	identitypostgres "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/persistence/postgres"
	identityapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/application"
	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	restaurantobs "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/adapters/observability"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/adapters/workflows"
	restaurantports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	userobs "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/adapters/observability"
	userapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/application"
	"github.com/Apurer/go-gin-restaurant-portal/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-restaurant-portal/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-restaurant-portal/internal/platform/postgres"
)

const serviceName = "restaurant-portal"

// LoadDotEnv reads a local .env file unless APP_ENV is production. A missing
// file is not an error.
func LoadDotEnv() {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production") {
		return
	}
	_ = godotenv.Load()
}

// Run boots the restaurant portal with observability, sessions, the remote API
// client and restaurant submissions wired.
func Run(ctx context.Context) error {
	LoadDotEnv()
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	sessions, durableSessions, cleanupSessions := buildSessionStore(ctx, logger)
	defer cleanupSessions()

	remote, err := myapi.New(cfg.APIBaseURL, myapi.WithTimeout(cfg.APITimeout), myapi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to configure remote API client: %w", err)
	}
	userGateway := userobs.New(
		remote,
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer("internal.users.gateway")),
		userobs.WithMeter(instruments.Meter("internal.users.gateway")),
	)
	userQuery := userapp.NewQuery(userGateway, userapp.WithQueryLogger(logger), userapp.WithRenderBudget(cfg.ProfileBudget))
	userMutation := userapp.NewMutation(userGateway, userapp.WithOnSaved(userQuery.Remember))

	var submissions restaurantports.SubmissionOrchestrator = restaurantworkflows.NewInlineSubmissions(remote)
	var restaurantOpts []portalserver.RestaurantOption
	switch {
	case !durableSessions:
		logger.Warn("restaurant submissions run inline: Temporal workers need the postgres session store")
	default:
		temporalClient, err := ConnectTemporalClient(cfg, instruments)
		if err != nil {
			logger.Warn("Temporal workflows unavailable, delivering restaurants inline", slog.String("error", err.Error()))
			break
		}
		defer temporalClient.Close()
		submissions = restaurantworkflows.NewTemporalSubmissions(temporalClient)
		restaurantOpts = append(restaurantOpts, portalserver.WithMaxUploadBytes(restaurantworkflows.MaxImageBytes))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	submissions = restaurantobs.New(
		submissions,
		restaurantobs.WithLogger(logger),
		restaurantobs.WithTracer(instruments.Tracer("internal.restaurants.submissions")),
		restaurantobs.WithMeter(instruments.Meter("internal.restaurants.submissions")),
	)

	var verifier identityports.TokenVerifier
	if hmac, err := oidc.NewHMACVerifier(cfg.AuthDomain, cfg.AuthClientID, cfg.AuthClientSecret); err != nil {
		logger.Warn("login is disabled until AUTH_* settings are provided", slog.String("error", err.Error()))
	} else {
		verifier = hmac
	}
	identityService := identityapp.NewService(identityapp.Config{
		Domain:      cfg.AuthDomain,
		ClientID:    cfg.AuthClientID,
		Audience:    cfg.AuthAudience,
		CallbackURL: cfg.AuthCallbackURL,
		SessionTTL:  cfg.SessionTTL,
	}, sessions, verifier, identityapp.WithLogger(logger))
	provider := oidc.NewProvider(identityService, cfg.SecureCookies())

	handlers := portalserver.ApiHandleFunctions{
		AuthAPI:       portalserver.NewAuthAPI(identityService, provider, cfg.LogoutReturnTo, logger).OnLogout(userQuery.Forget),
		HomeAPI:       portalserver.HomeAPI{},
		RestaurantAPI: portalserver.NewRestaurantAPI(remote, submissions, logger, restaurantOpts...),
		UserAPI:       portalserver.NewUserAPI(userQuery, userMutation, logger),
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware := []gin.HandlerFunc{otelgin.Middleware(serviceName)}
	if len(cfg.CORSAllowedOrigins) > 0 {
		middleware = append(middleware, cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router, err := portalserver.NewRouter(handlers, middleware...)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	addr := ":" + cfg.Port
	logger.Info("restaurant portal listening", slog.String("addr", addr), slog.String("api", cfg.APIBaseURL))
	if err := router.Run(addr); err != nil {
		logger.Error("restaurant portal exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// buildSessionStore prefers postgres and falls back to memory. The second
// result reports whether sessions outlive this process.
func buildSessionStore(ctx context.Context, logger *slog.Logger) (identityports.SessionStore, bool, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		return identitymemory.NewSessionStore(), false, func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate session schema, falling back to memory", slog.String("error", err.Error()))
		cleanup()
		return identitymemory.NewSessionStore(), false, func() {}
	}
	logger.Info("session store configured with postgres")
	return identitypostgres.NewSessionStore(db), true, cleanup
}

// ConnectTemporalClient dials Temporal with tracing and the process logger.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
