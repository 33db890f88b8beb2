package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

var (
	// ErrNotFound is returned when the signed-in user has no restaurant yet.
	ErrNotFound = errors.New("restaurant not found")
	// ErrRejected is returned when the remote API refuses a payload as invalid.
	ErrRejected = errors.New("restaurant rejected by remote API")
)

// Gateway is the remote restaurant API as seen by the portal.
type Gateway interface {
	GetMyRestaurant(ctx context.Context) (*domain.PersistedRestaurant, error)
	CreateMyRestaurant(ctx context.Context, p payload.Payload) (*domain.PersistedRestaurant, error)
	UpdateMyRestaurant(ctx context.Context, p payload.Payload) (*domain.PersistedRestaurant, error)
}
