// Package form implements the manage-restaurant form: the validation schema,
// hydration from a persisted restaurant and submission as a multipart payload.
package form

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

// State tells whether the draft came from a persisted restaurant.
type State string

const (
	StateEmpty    State = "empty"
	StateHydrated State = "hydrated"
)

// HydrationPolicy decides what happens when a new persisted restaurant is observed.
type HydrationPolicy int

const (
	// HydrateAlways replaces the draft every time the persisted reference
	// changes, discarding unsaved edits.
	HydrateAlways HydrationPolicy = iota
	// HydrateOnce hydrates only the first persisted restaurant observed.
	HydrateOnce
)

// SaveFunc receives the encoded payload. The form does not retry or inspect
// the outcome; the returned error is handed back to the caller untouched.
type SaveFunc func(ctx context.Context, p payload.Payload) error

// ErrNoSaveFunc is returned by Submit when no save function was supplied.
var ErrNoSaveFunc = errors.New("restaurant form: save function is required")

// Form holds a restaurant draft for the lifetime of one page interaction.
type Form struct {
	draft  Draft
	source *domain.PersistedRestaurant
	state  State
	dirty  bool
	policy HydrationPolicy
	logger *slog.Logger
}

type Option func(*Form)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) { f.logger = logger }
}

func WithHydrationPolicy(policy HydrationPolicy) Option {
	return func(f *Form) { f.policy = policy }
}

// New returns a form in the empty state.
func New(opts ...Option) *Form {
	f := &Form{draft: EmptyDraft(), state: StateEmpty}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f
}

// State returns the hydration state.
func (f *Form) State() State { return f.state }

// Dirty reports whether the draft has edits that were not hydrated.
func (f *Form) Dirty() bool { return f.dirty }

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft { return f.draft.clone() }

// Edit replaces the draft with user input.
func (f *Form) Edit(d Draft) {
	f.draft = d.clone()
	f.dirty = true
}

// Observe hydrates the form when restaurant is a reference it has not seen.
// A nil restaurant or the same reference as last time is a no-op. It reports
// whether the draft was replaced.
func (f *Form) Observe(restaurant *domain.PersistedRestaurant) bool {
	if restaurant == nil || restaurant == f.source {
		return false
	}
	if f.policy == HydrateOnce && f.state == StateHydrated {
		return false
	}
	if f.dirty {
		f.logger.Warn("hydration discards unsaved restaurant edits",
			slog.String("restaurant.id", restaurant.ID),
			slog.String("restaurant.name", restaurant.RestaurantName),
		)
	}
	f.source = restaurant
	f.draft = Hydrate(restaurant)
	f.state = StateHydrated
	f.dirty = false
	return true
}

// Hydrate converts a persisted restaurant into a draft. The delivery price
// and delivery time are re-parsed as integers because the API may serve them
// as strings; everything else is copied verbatim.
func Hydrate(r *domain.PersistedRestaurant) Draft {
	d := Draft{
		RestaurantName:        r.RestaurantName,
		City:                  r.City,
		Country:               r.Country,
		DeliveryPrice:         leadingInt(r.DeliveryPrice),
		EstimatedDeliveryTime: leadingInt(r.EstimatedDeliveryTime),
		Cuisines:              append([]string{}, r.Cuisines...),
		MenuItems:             make([]MenuItemDraft, 0, len(r.MenuItems)),
		ImageURL:              r.ImageURL,
	}
	for _, item := range r.MenuItems {
		d.MenuItems = append(d.MenuItems, MenuItemDraft{Name: item.Name, Price: item.Price})
	}
	return d
}

func leadingInt(n domain.Numeric) domain.Numeric {
	v, ok := n.LeadingInt()
	if !ok {
		return ""
	}
	return domain.NumericFromInt(v)
}

// Submit validates the draft and, when it is accepted, encodes it and calls
// save exactly once. A rejected draft yields *ValidationError and save is not
// called.
func (f *Form) Submit(ctx context.Context, save SaveFunc) error {
	if save == nil {
		return ErrNoSaveFunc
	}
	restaurant, errs := Validate(f.draft)
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return save(ctx, payload.Encode(restaurant))
}

// Button describes the submit affordance.
type Button struct {
	Label    string
	Disabled bool
	Loading  bool
}

// SubmitButton returns the submit button, or a disabled loading button while
// a save is in flight.
func SubmitButton(isLoading bool) Button {
	if isLoading {
		return Button{Label: "Loading...", Disabled: true, Loading: true}
	}
	return Button{Label: "Submit"}
}
