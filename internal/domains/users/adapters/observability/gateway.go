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

	userdomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

const tracerName = "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/adapters/observability"

// Gateway decorates the remote user API with tracing, logging, and metrics.
type Gateway struct {
	inner   userports.Gateway
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics gatewayMetrics
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(g *Gateway) { g.metrics = newGatewayMetrics(m) }
}

// New wraps the user gateway.
func New(inner userports.Gateway, opts ...Option) userports.Gateway {
	g := &Gateway{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newGatewayMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.tracer == nil {
		g.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if g.logger == nil {
		g.logger = defaultLogger()
	}
	return g
}

func (g *Gateway) GetMyUser(ctx context.Context) (*userdomain.User, error) {
	ctx, span := g.tracer.Start(ctx, "UserGateway.GetMyUser")
	defer span.End()
	user, err := g.inner.GetMyUser(ctx)
	if err != nil {
		if errors.Is(err, userports.ErrNotFound) {
			span.SetAttributes(attribute.Bool("user.found", false))
			return nil, err
		}
		g.metrics.recordFailure(ctx, "get")
		return nil, g.handleError(ctx, span, err, "failed to fetch current user")
	}
	span.SetAttributes(attribute.Bool("user.found", true))
	g.metrics.recordFetched(ctx)
	return user, nil
}

func (g *Gateway) UpdateMyUser(ctx context.Context, user *userdomain.User) (*userdomain.User, error) {
	ctx, span := g.tracer.Start(ctx, "UserGateway.UpdateMyUser")
	defer span.End()
	g.logInfo(ctx, "updating user profile")
	result, err := g.inner.UpdateMyUser(ctx, user)
	if err != nil {
		g.metrics.recordFailure(ctx, "update")
		return nil, g.handleError(ctx, span, err, "failed to update user profile")
	}
	g.metrics.recordUpdated(ctx)
	g.logInfo(ctx, "user profile updated")
	return result, nil
}

func (g *Gateway) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	g.logError(ctx, msg, err, attrs...)
	return err
}

func (g *Gateway) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if g.logger == nil {
		return
	}
	g.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (g *Gateway) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if g.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	g.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type gatewayMetrics struct {
	fetched  metric.Int64Counter
	updated  metric.Int64Counter
	failures metric.Int64Counter
}

func newGatewayMetrics(m metric.Meter) gatewayMetrics {
	if m == nil {
		return gatewayMetrics{}
	}
	fetched, _ := m.Int64Counter("users.gateway.fetched", metric.WithDescription("Number of current-user fetches"))
	updated, _ := m.Int64Counter("users.gateway.updated", metric.WithDescription("Number of profile updates"))
	failures, _ := m.Int64Counter("users.gateway.failures", metric.WithDescription("Number of failed remote user calls"))
	return gatewayMetrics{fetched: fetched, updated: updated, failures: failures}
}

func (m gatewayMetrics) recordFetched(ctx context.Context) {
	if m.fetched != nil {
		m.fetched.Add(ctx, 1)
	}
}

func (m gatewayMetrics) recordUpdated(ctx context.Context) {
	if m.updated != nil {
		m.updated.Add(ctx, 1)
	}
}

func (m gatewayMetrics) recordFailure(ctx context.Context, op string) {
	if m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.Gateway = (*Gateway)(nil)
