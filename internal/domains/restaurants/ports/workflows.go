package ports

import (
	"context"
	"fmt"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

// SubmissionMode selects between creating and updating the user's restaurant.
type SubmissionMode string

const (
	SubmissionCreate SubmissionMode = "create"
	SubmissionUpdate SubmissionMode = "update"
)

// Submission is a payload ready to be delivered to the remote API. SessionID
// lets out-of-process deliveries resolve the caller's access token without
// copying it into workflow history.
type Submission struct {
	Mode      SubmissionMode  `json:"mode"`
	Payload   payload.Payload `json:"payload"`
	SessionID string          `json:"sessionId,omitempty"`
}

// SubmissionOrchestrator delivers restaurant submissions, inline or through a
// durable workflow engine.
type SubmissionOrchestrator interface {
	Deliver(ctx context.Context, submission Submission) (*domain.PersistedRestaurant, error)
}

// SendTo dispatches the submission to the matching gateway call.
func (s Submission) SendTo(ctx context.Context, gateway Gateway) (*domain.PersistedRestaurant, error) {
	switch s.Mode {
	case SubmissionCreate:
		return gateway.CreateMyRestaurant(ctx, s.Payload)
	case SubmissionUpdate:
		return gateway.UpdateMyRestaurant(ctx, s.Payload)
	default:
		return nil, fmt.Errorf("unknown submission mode %q", s.Mode)
	}
}
