package application

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

// Mutation saves profile edits and tracks which subjects have an update in
// flight.
type Mutation struct {
	gateway ports.Gateway
	onSaved func(subject string, user *domain.User)

	mu       sync.Mutex
	inflight map[string]int
}

type MutationOption func(*Mutation)

// WithOnSaved is called with the stored user after every successful update.
func WithOnSaved(fn func(subject string, user *domain.User)) MutationOption {
	return func(m *Mutation) { m.onSaved = fn }
}

func NewMutation(gateway ports.Gateway, opts ...MutationOption) *Mutation {
	m := &Mutation{gateway: gateway, inflight: map[string]int{}}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// UpdateMyUser forwards user to the remote API. Errors are returned unchanged.
func (m *Mutation) UpdateMyUser(ctx context.Context, subject string, user *domain.User) error {
	if user == nil {
		return errors.New("user is required")
	}
	m.begin(subject)
	defer m.end(subject)
	saved, err := m.gateway.UpdateMyUser(ctx, user)
	if err != nil {
		return err
	}
	if m.onSaved != nil {
		m.onSaved(subject, saved)
	}
	return nil
}

// IsLoading reports whether an update for subject is still running.
func (m *Mutation) IsLoading(subject string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight[subject] > 0
}

func (m *Mutation) begin(subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight[subject]++
}

func (m *Mutation) end(subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[subject] <= 1 {
		delete(m.inflight, subject)
		return
	}
	m.inflight[subject]--
}

var _ ports.Mutation = (*Mutation)(nil)
