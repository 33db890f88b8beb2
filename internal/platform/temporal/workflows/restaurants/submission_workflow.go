package restaurants

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/sequences"
)

const (
	// SubmissionWorkflowName is the public identifier for registering the workflow.
	SubmissionWorkflowName = "restaurants.workflows.Submission"
	// SubmissionTaskQueue is the queue consumed by the worker delivering restaurants.
	SubmissionTaskQueue = "RESTAURANT_SUBMISSION"
)

// SubmissionWorkflowInput carries the submission plus the trace id of the
// request that started it.
type SubmissionWorkflowInput struct {
	Submission ports.Submission
	TraceID    string
}

// SubmissionWorkflow delivers one restaurant payload to the remote API.
func SubmissionWorkflow(ctx workflow.Context, input SubmissionWorkflowInput) (*domain.PersistedRestaurant, error) {
	logger := workflow.GetLogger(ctx)
	mode := string(input.Submission.Mode)
	logger.Info("SubmissionWorkflow started", withTraceID(input.TraceID, "mode", mode)...)
	restaurant, err := sequences.RunRestaurantDeliverySequence(ctx, input.Submission)
	if err != nil {
		logger.Error("SubmissionWorkflow failed", withTraceID(input.TraceID, "mode", mode, "error", err)...)
		return nil, err
	}
	logger.Info("SubmissionWorkflow completed", withTraceID(input.TraceID, "mode", mode, "restaurantId", restaurant.ID)...)
	return restaurant, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
