package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/activities/restaurants"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-portal/internal/platform/temporal/workflows/restaurants"
)

var (
	_ ports.SubmissionOrchestrator = (*TemporalSubmissions)(nil)
	_ ports.SubmissionOrchestrator = (*InlineSubmissions)(nil)
)

// MaxImageBytes caps the image carried in workflow input. The file travels
// base64 encoded inside the submission and must stay under Temporal's 2 MB
// payload limit.
const MaxImageBytes int64 = 1 << 20

// TemporalSubmissions delivers restaurant payloads through a Temporal workflow
// and waits for the remote API's answer.
type TemporalSubmissions struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSubmissions wires a Temporal client into the orchestrator.
func NewTemporalSubmissions(c client.Client) *TemporalSubmissions {
	return &TemporalSubmissions{client: c, taskQueue: restaurantworkflows.SubmissionTaskQueue}
}

// Deliver starts the submission workflow. The caller's session id travels with
// the submission so the activity can resolve the access token.
func (o *TemporalSubmissions) Deliver(ctx context.Context, submission ports.Submission) (*domain.PersistedRestaurant, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal restaurant submissions not configured")
	}
	if submission.SessionID == "" {
		return nil, errors.New("restaurant submission requires a session id")
	}
	if file := submission.Payload.File; file != nil && int64(len(file.Data)) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ports.ErrRejected, MaxImageBytes)
	}
	traceComponent := workflowTraceComponent(ctx)
	options := client.StartWorkflowOptions{
		ID:        buildSubmissionWorkflowID(submission, traceComponent),
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		restaurantworkflows.SubmissionWorkflowName,
		restaurantworkflows.SubmissionWorkflowInput{Submission: submission, TraceID: traceComponent},
	)
	if err != nil {
		return nil, err
	}
	var restaurant domain.PersistedRestaurant
	if err := run.Get(ctx, &restaurant); err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == restaurantactivities.ErrTypeRejected {
			return nil, fmt.Errorf("%w: %s", ports.ErrRejected, appErr.Error())
		}
		return nil, err
	}
	return &restaurant, nil
}

// InlineSubmissions calls the remote API directly, for tests or when Temporal
// is disabled. The access token must already be on ctx.
type InlineSubmissions struct {
	gateway ports.Gateway
}

func NewInlineSubmissions(gateway ports.Gateway) *InlineSubmissions {
	return &InlineSubmissions{gateway: gateway}
}

// Deliver posts a create or puts an update depending on the submission mode.
func (o *InlineSubmissions) Deliver(ctx context.Context, submission ports.Submission) (*domain.PersistedRestaurant, error) {
	if o == nil || o.gateway == nil {
		return nil, errors.New("inline restaurant submissions not configured")
	}
	return submission.SendTo(ctx, o.gateway)
}

func buildSubmissionWorkflowID(submission ports.Submission, traceComponent string) string {
	sum := sha256.Sum256([]byte(submission.SessionID))
	return fmt.Sprintf("restaurant-%s-%s-%s", submission.Mode, hex.EncodeToString(sum[:8]), traceComponent)
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
