package api

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-restaurant-portal/internal/clients/http/myapi"
	userapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/application"
)

// Config carries environment-driven settings for the portal process.
type Config struct {
	Port               string
	Environment        string
	APIBaseURL         string
	APITimeout         time.Duration
	AuthDomain         string
	AuthClientID       string
	AuthClientSecret   string
	AuthAudience       string
	AuthCallbackURL    string
	LogoutReturnTo     string
	PostgresDSN        string
	SessionTTL         time.Duration
	ProfileBudget      time.Duration
	CORSAllowedOrigins []string
	TemporalAddress    string
	TemporalNamespace  string
	TemporalDisabled   bool
}

// Production reports whether the process runs with APP_ENV=production.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SecureCookies reports whether session cookies must be marked Secure.
func (c Config) SecureCookies() bool {
	return c.Production() || strings.HasPrefix(c.AuthCallbackURL, "https://")
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	port := envDefault("PORT", "8080")
	cfg := Config{
		Port:               port,
		Environment:        envDefault("APP_ENV", "development"),
		APIBaseURL:         strings.TrimSuffix(envDefault("API_BASE_URL", "http://localhost:7000"), "/"),
		APITimeout:         myapi.DefaultTimeout,
		AuthDomain:         strings.TrimSpace(os.Getenv("AUTH_DOMAIN")),
		AuthClientID:       strings.TrimSpace(os.Getenv("AUTH_CLIENT_ID")),
		AuthClientSecret:   strings.TrimSpace(os.Getenv("AUTH_CLIENT_SECRET")),
		AuthAudience:       strings.TrimSpace(os.Getenv("AUTH_AUDIENCE")),
		AuthCallbackURL:    envDefault("AUTH_CALLBACK_URL", "http://localhost:"+port+"/auth/callback"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		SessionTTL:         24 * time.Hour,
		ProfileBudget:      userapp.DefaultRenderBudget,
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}

	var err error
	if cfg.APITimeout, err = positiveDuration("API_TIMEOUT_SECONDS", time.Second, cfg.APITimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = positiveDuration("SESSION_TTL_HOURS", time.Hour, cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.ProfileBudget, err = positiveDuration("PROFILE_RENDER_BUDGET_MS", time.Millisecond, cfg.ProfileBudget); err != nil {
		return Config{}, err
	}
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return Config{}, fmt.Errorf("API_BASE_URL must be an absolute URL: %w", err)
	}
	callback, err := url.ParseRequestURI(cfg.AuthCallbackURL)
	if err != nil {
		return Config{}, fmt.Errorf("AUTH_CALLBACK_URL must be an absolute URL: %w", err)
	}
	cfg.LogoutReturnTo = callback.Scheme + "://" + callback.Host + "/"

	if cfg.Production() {
		var missing []string
		for _, required := range []struct{ key, val string }{
			{"AUTH_DOMAIN", cfg.AuthDomain},
			{"AUTH_CLIENT_ID", cfg.AuthClientID},
			{"AUTH_CLIENT_SECRET", cfg.AuthClientSecret},
		} {
			if required.val == "" {
				missing = append(missing, required.key)
			}
		}
		if len(missing) > 0 {
			return Config{}, fmt.Errorf("missing required settings in production: %s", strings.Join(missing, ", "))
		}
	}
	return cfg, nil
}

func positiveDuration(key string, unit, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(n) * unit, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
