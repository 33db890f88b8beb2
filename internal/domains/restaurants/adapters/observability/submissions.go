package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
)

const tracerName = "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/adapters/observability"

// Submissions decorates the submission orchestrator with tracing, logging, and metrics.
type Submissions struct {
	inner   ports.SubmissionOrchestrator
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics submissionMetrics
}

type Option func(*Submissions)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Submissions) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Submissions) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Submissions) { s.metrics = newSubmissionMetrics(m) }
}

// New wraps the orchestrator.
func New(inner ports.SubmissionOrchestrator, opts ...Option) ports.SubmissionOrchestrator {
	s := &Submissions{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newSubmissionMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Submissions) Deliver(ctx context.Context, submission ports.Submission) (*domain.PersistedRestaurant, error) {
	mode := string(submission.Mode)
	attrs := []attribute.KeyValue{
		attribute.String("restaurant.submission.mode", mode),
		attribute.Int("restaurant.submission.fields", len(submission.Payload.Fields)),
		attribute.Bool("restaurant.submission.image_file", submission.Payload.File != nil),
	}
	ctx, span := s.tracer.Start(ctx, "RestaurantSubmissions.Deliver", trace.WithAttributes(attrs...))
	defer span.End()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "delivering restaurant", slog.String("mode", mode))
	restaurant, err := s.inner.Deliver(ctx, submission)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelError
		if errors.Is(err, ports.ErrRejected) {
			level = slog.LevelWarn
		}
		s.logger.LogAttrs(ctx, level, "restaurant delivery failed", slog.String("mode", mode), slog.String("error", err.Error()))
		s.metrics.record(ctx, mode, "failed")
		return nil, err
	}
	s.metrics.record(ctx, mode, "delivered")
	if restaurant != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "restaurant delivered", slog.String("mode", mode), slog.String("restaurant.id", restaurant.ID))
	}
	return restaurant, nil
}

type submissionMetrics struct {
	submissions metric.Int64Counter
}

func newSubmissionMetrics(m metric.Meter) submissionMetrics {
	if m == nil {
		return submissionMetrics{}
	}
	submissions, _ := m.Int64Counter("restaurants.submissions", metric.WithDescription("Number of restaurant submissions by mode and outcome"))
	return submissionMetrics{submissions: submissions}
}

func (m submissionMetrics) record(ctx context.Context, mode, outcome string) {
	if m.submissions != nil {
		m.submissions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		))
	}
}

var _ ports.SubmissionOrchestrator = (*Submissions)(nil)
