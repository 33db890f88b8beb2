package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
)

var ErrNotFound = errors.New("user not found")

// Gateway is the remote user API.
type Gateway interface {
	GetMyUser(ctx context.Context) (*domain.User, error)
	UpdateMyUser(ctx context.Context, user *domain.User) (*domain.User, error)
}
