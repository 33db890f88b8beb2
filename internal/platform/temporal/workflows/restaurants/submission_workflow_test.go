package restaurants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	identitymemory "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/memory"
	identitydomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/activities/restaurants"
)

type tokenCheckingGateway struct {
	fail  error
	calls int
}

func (g *tokenCheckingGateway) GetMyRestaurant(context.Context) (*domain.PersistedRestaurant, error) {
	return nil, ports.ErrNotFound
}

func (g *tokenCheckingGateway) CreateMyRestaurant(ctx context.Context, p payload.Payload) (*domain.PersistedRestaurant, error) {
	g.calls++
	if g.fail != nil {
		return nil, g.fail
	}
	if identityports.AccessTokenFrom(ctx) != "access-1" {
		return nil, identityports.ErrUnauthorized
	}
	name, _ := p.Get("restaurantName")
	return &domain.PersistedRestaurant{ID: "r-1", RestaurantName: name}, nil
}

func (g *tokenCheckingGateway) UpdateMyRestaurant(ctx context.Context, p payload.Payload) (*domain.PersistedRestaurant, error) {
	return g.CreateMyRestaurant(ctx, p)
}

func newEnv(t *testing.T, gw ports.Gateway) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	sessions := identitymemory.NewSessionStore()
	require.NoError(t, sessions.Save(context.Background(), &identitydomain.Session{
		Token:       "session-1",
		AccessToken: "access-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	acts := restaurantactivities.NewActivities(gw, sessions)
	env.RegisterActivityWithOptions(acts.DeliverRestaurant, activity.RegisterOptions{Name: restaurantactivities.DeliverRestaurantActivityName})
	return env
}

func TestSubmissionWorkflow_DeliversWithSessionToken(t *testing.T) {
	gw := &tokenCheckingGateway{}
	env := newEnv(t, gw)

	env.ExecuteWorkflow(SubmissionWorkflow, SubmissionWorkflowInput{
		Submission: ports.Submission{
			Mode:      ports.SubmissionCreate,
			Payload:   payload.Payload{Fields: []payload.Field{{Key: "restaurantName", Value: "Trattoria"}}},
			SessionID: "session-1",
		},
		TraceID: "trace-1",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var got domain.PersistedRestaurant
	require.NoError(t, env.GetWorkflowResult(&got))
	assert.Equal(t, "Trattoria", got.RestaurantName)
}

func TestSubmissionWorkflow_DoesNotRetryRejections(t *testing.T) {
	gw := &tokenCheckingGateway{fail: ports.ErrRejected}
	env := newEnv(t, gw)

	env.ExecuteWorkflow(SubmissionWorkflow, SubmissionWorkflowInput{
		Submission: ports.Submission{Mode: ports.SubmissionUpdate, SessionID: "session-1"},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, 1, gw.calls)
}

func TestSubmissionWorkflow_UnknownSessionFails(t *testing.T) {
	gw := &tokenCheckingGateway{}
	env := newEnv(t, gw)

	env.ExecuteWorkflow(SubmissionWorkflow, SubmissionWorkflowInput{
		Submission: ports.Submission{Mode: ports.SubmissionCreate, SessionID: "missing"},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Zero(t, gw.calls)
}
