package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/activities/restaurants"
)

// RunRestaurantDeliverySequence executes the delivery activity with a bounded
// retry policy. Rejections by the remote API are not retried.
func RunRestaurantDeliverySequence(ctx workflow.Context, submission ports.Submission) (*domain.PersistedRestaurant, error) {
	logger := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{restaurantactivities.ErrTypeRejected},
		},
	}

	var restaurant domain.PersistedRestaurant
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), restaurantactivities.DeliverRestaurantActivityName, submission).Get(ctx, &restaurant)
	if err != nil {
		logger.Error("restaurant delivery sequence failed", "mode", string(submission.Mode), "error", err)
		return nil, err
	}
	logger.Info("restaurant delivery sequence delivered", "restaurantId", restaurant.ID)
	return &restaurant, nil
}
