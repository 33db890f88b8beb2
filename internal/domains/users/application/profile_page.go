package application

import (
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

// PageState is the data-presence state of the profile page.
type PageState string

const (
	PageLoading     PageState = "loading"
	PageUnavailable PageState = "unavailable"
	PageReady       PageState = "ready"
)

const (
	LoadingMessage     = "Loading user profile..."
	UnavailableMessage = "Unable to load user profile"
)

// ProfilePage is what the profile template renders. Form is set only when
// State is PageReady.
type ProfilePage struct {
	State     PageState
	Message   string
	Form      *ProfileDraft
	User      *domain.User
	IsLoading bool
}

// BuildProfilePage picks the page state from the user query. The update's
// loading flag is forwarded to the form.
func BuildProfilePage(query ports.UserQuery, updateLoading bool) ProfilePage {
	if query.IsLoading {
		return ProfilePage{State: PageLoading, Message: LoadingMessage}
	}
	if query.CurrentUser == nil {
		return ProfilePage{State: PageUnavailable, Message: UnavailableMessage}
	}
	draft := DraftFromUser(query.CurrentUser)
	return ProfilePage{
		State:     PageReady,
		Form:      &draft,
		User:      query.CurrentUser,
		IsLoading: updateLoading,
	}
}
