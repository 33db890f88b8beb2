package restaurants

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	restaurantports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
)

const (
	// DeliverRestaurantActivityName sends a restaurant payload to the remote API.
	DeliverRestaurantActivityName = "restaurants.activities.DeliverRestaurant"
	// ErrTypeRejected marks failures that retrying cannot fix.
	ErrTypeRejected = "RestaurantRejected"
)

// Activities groups the activities of the restaurant submission workflow.
type Activities struct {
	gateway  restaurantports.Gateway
	sessions identityports.SessionStore
}

// NewActivities wires the remote API gateway and the session store used to
// resolve access tokens.
func NewActivities(gateway restaurantports.Gateway, sessions identityports.SessionStore) *Activities {
	return &Activities{gateway: gateway, sessions: sessions}
}

// DeliverRestaurant resolves the submitting session and posts the payload.
func (a *Activities) DeliverRestaurant(ctx context.Context, submission restaurantports.Submission) (*domain.PersistedRestaurant, error) {
	logger := activity.GetLogger(ctx)
	mode := string(submission.Mode)
	if a == nil || a.gateway == nil || a.sessions == nil {
		logger.Error("restaurant delivery activity not initialized", "mode", mode)
		return nil, errors.New("restaurant delivery activity not initialized")
	}
	session, err := a.sessions.Get(ctx, submission.SessionID)
	if err != nil {
		logger.Error("DeliverRestaurant could not resolve session", "mode", mode, "error", err)
		if errors.Is(err, identityports.ErrSessionNotFound) {
			return nil, temporal.NewApplicationError(err.Error(), ErrTypeRejected, err)
		}
		return nil, err
	}
	logger.Info("DeliverRestaurant activity started", "mode", mode, "subject", session.Identity.Subject)
	ctx = identityports.WithAccessToken(ctx, session.AccessToken)
	restaurant, err := submission.SendTo(ctx, a.gateway)
	if err != nil {
		logger.Error("DeliverRestaurant activity failed", "mode", mode, "error", err)
		if errors.Is(err, restaurantports.ErrRejected) || errors.Is(err, identityports.ErrUnauthorized) {
			return nil, temporal.NewApplicationError(err.Error(), ErrTypeRejected, err)
		}
		return nil, err
	}
	logger.Info("DeliverRestaurant activity completed", "restaurantId", restaurant.ID)
	return restaurant, nil
}
