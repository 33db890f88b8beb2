// Package myapi is the HTTP client for the remote restaurant API's "my"
// endpoints. Every call carries the signed-in user's bearer token taken from
// the request context.
package myapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	restaurantdomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	restaurantports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	userdomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

const (
	// DefaultTimeout bounds every outbound call unless overridden.
	DefaultTimeout = 10 * time.Second

	userPath       = "/api/my/user"
	restaurantPath = "/api/my/restaurant"
)

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("remote API returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to /api/my/user and /api/my/restaurant.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New instantiates the client with sane defaults.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("remote API base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote API base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("remote API base URL %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type userBody struct {
	ID           string `json:"_id,omitempty"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

func (b userBody) toDomain() *userdomain.User {
	return &userdomain.User{
		ID:           b.ID,
		Email:        b.Email,
		Name:         b.Name,
		AddressLine1: b.AddressLine1,
		City:         b.City,
		Country:      b.Country,
	}
}

type updateUserBody struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// GetMyUser fetches the signed-in user's profile.
func (c *Client) GetMyUser(ctx context.Context) (*userdomain.User, error) {
	var body userBody
	if err := c.do(ctx, http.MethodGet, userPath, nil, "", &body, userports.ErrNotFound); err != nil {
		return nil, err
	}
	return body.toDomain(), nil
}

// UpdateMyUser saves the editable profile fields. The API answers with the
// stored user; an empty answer falls back to the submitted one.
func (c *Client) UpdateMyUser(ctx context.Context, user *userdomain.User) (*userdomain.User, error) {
	if user == nil {
		return nil, errors.New("user is required")
	}
	raw, err := json.Marshal(updateUserBody{
		Name:         user.Name,
		AddressLine1: user.AddressLine1,
		City:         user.City,
		Country:      user.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	var body userBody
	if err := c.do(ctx, http.MethodPut, userPath, bytes.NewReader(raw), "application/json", &body, userports.ErrNotFound); err != nil {
		return nil, err
	}
	if body == (userBody{}) {
		saved := *user
		return &saved, nil
	}
	return body.toDomain(), nil
}

// GetMyRestaurant fetches the signed-in user's restaurant. An empty or null
// body means the user has none.
func (c *Client) GetMyRestaurant(ctx context.Context) (*restaurantdomain.PersistedRestaurant, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, restaurantPath, nil, "", &raw, restaurantports.ErrNotFound); err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%s %s: empty body: %w", http.MethodGet, restaurantPath, restaurantports.ErrNotFound)
	}
	var restaurant restaurantdomain.PersistedRestaurant
	if err := json.Unmarshal(raw, &restaurant); err != nil {
		return nil, fmt.Errorf("decode remote API response: %w", err)
	}
	return &restaurant, nil
}

// CreateMyRestaurant posts the multipart payload.
func (c *Client) CreateMyRestaurant(ctx context.Context, p payload.Payload) (*restaurantdomain.PersistedRestaurant, error) {
	return c.sendRestaurant(ctx, http.MethodPost, p)
}

// UpdateMyRestaurant puts the multipart payload.
func (c *Client) UpdateMyRestaurant(ctx context.Context, p payload.Payload) (*restaurantdomain.PersistedRestaurant, error) {
	return c.sendRestaurant(ctx, http.MethodPut, p)
}

func (c *Client) sendRestaurant(ctx context.Context, method string, p payload.Payload) (*restaurantdomain.PersistedRestaurant, error) {
	body, contentType, err := p.Body()
	if err != nil {
		return nil, fmt.Errorf("encode restaurant payload: %w", err)
	}
	var restaurant restaurantdomain.PersistedRestaurant
	if err := c.do(ctx, method, restaurantPath, body, contentType, &restaurant, restaurantports.ErrNotFound); err != nil {
		if isRejection(err) {
			return nil, fmt.Errorf("%w: %w", restaurantports.ErrRejected, err)
		}
		return nil, err
	}
	return &restaurant, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any, notFound error) error {
	if c == nil || c.httpClient == nil {
		return errors.New("remote API client not configured")
	}
	token := identityports.AccessTokenFrom(ctx)
	if token == "" {
		return fmt.Errorf("%s %s: %w", method, path, identityports.ErrUnauthorized)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call remote API %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.DebugContext(ctx, "remote API call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, notFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, identityports.ErrUnauthorized)
	case resp.StatusCode >= http.StatusBadRequest:
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read remote API response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode remote API response: %w", err)
	}
	return nil
}

// errorMessage pulls a message out of a JSON error body, falling back to the
// raw text.
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var parsed struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return strings.TrimSpace(string(raw))
}

func isRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity
}

var (
	_ userports.Gateway       = (*Client)(nil)
	_ restaurantports.Gateway = (*Client)(nil)
)
