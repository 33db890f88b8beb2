// Package application holds the user-profile use cases: fetching the current
// user, updating it and assembling the profile page.
package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

const (
	DefaultRenderBudget = 800 * time.Millisecond
	DefaultResultTTL    = 30 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

type cachedUser struct {
	user      *domain.User
	fetchedAt time.Time
}

// Query fetches the current user for page renders. Concurrent fetches for the
// same subject share one remote call. A render waits at most the render
// budget; a fetch still running after that keeps going and its result is
// cached for the next render.
type Query struct {
	gateway      ports.Gateway
	group        singleflight.Group
	renderBudget time.Duration
	resultTTL    time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	results map[string]cachedUser
}

type QueryOption func(*Query)

func WithQueryLogger(logger *slog.Logger) QueryOption {
	return func(q *Query) { q.logger = logger }
}

func WithRenderBudget(budget time.Duration) QueryOption {
	return func(q *Query) {
		if budget > 0 {
			q.renderBudget = budget
		}
	}
}

func WithResultTTL(ttl time.Duration) QueryOption {
	return func(q *Query) {
		if ttl > 0 {
			q.resultTTL = ttl
		}
	}
}

func NewQuery(gateway ports.Gateway, opts ...QueryOption) *Query {
	q := &Query{
		gateway:      gateway,
		renderBudget: DefaultRenderBudget,
		resultTTL:    DefaultResultTTL,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		results:      map[string]cachedUser{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	if q.logger == nil {
		q.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return q
}

// GetMyUser returns the user of subject, or IsLoading when the fetch did not
// finish within the render budget. Failed fetches resolve to no user.
func (q *Query) GetMyUser(ctx context.Context, subject string) ports.UserQuery {
	if user, ok := q.cached(subject); ok {
		return ports.UserQuery{CurrentUser: user}
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := q.group.DoChan(subject, func() (any, error) {
		return q.fetch(fetchCtx, subject), nil
	})
	timer := time.NewTimer(q.renderBudget)
	defer timer.Stop()
	select {
	case res := <-ch:
		user, _ := res.Val.(*domain.User)
		return ports.UserQuery{CurrentUser: user}
	case <-timer.C:
		q.logger.InfoContext(ctx, "user fetch exceeded render budget", slog.String("subject", subject))
		return ports.UserQuery{IsLoading: true}
	case <-ctx.Done():
		return ports.UserQuery{IsLoading: true}
	}
}

func (q *Query) fetch(ctx context.Context, subject string) *domain.User {
	ctx, cancel := context.WithTimeout(ctx, q.fetchTimeout)
	defer cancel()
	user, err := q.gateway.GetMyUser(ctx)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, ports.ErrNotFound) {
			level = slog.LevelWarn
		}
		q.logger.Log(ctx, level, "failed to load current user", slog.String("subject", subject), slog.String("error", err.Error()))
		user = nil
	}
	q.store(subject, user)
	return user
}

func (q *Query) cached(subject string) (*domain.User, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.results[subject]
	if !ok {
		return nil, false
	}
	if q.now().Sub(entry.fetchedAt) > q.resultTTL {
		delete(q.results, subject)
		return nil, false
	}
	return entry.user, true
}

func (q *Query) store(subject string, user *domain.User) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.results[subject] = cachedUser{user: user, fetchedAt: q.now()}
}

// Remember replaces the cached user of subject, e.g. after a successful update.
func (q *Query) Remember(subject string, user *domain.User) {
	q.store(subject, user)
}

// Forget drops the cached user of subject.
func (q *Query) Forget(subject string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.results, subject)
}

var _ ports.Query = (*Query)(nil)
