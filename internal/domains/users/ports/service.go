package ports

import (
	"context"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
)

// UserQuery is the observable state of a current-user fetch.
type UserQuery struct {
	CurrentUser *domain.User
	IsLoading   bool
}

// Query exposes the current user to pages.
type Query interface {
	GetMyUser(ctx context.Context, subject string) UserQuery
}

// Mutation exposes the profile update to pages. IsLoading reports whether an
// update for subject is still in flight.
type Mutation interface {
	UpdateMyUser(ctx context.Context, subject string, user *domain.User) error
	IsLoading(subject string) bool
}
