package portalserver

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/form"
	userapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/application"
	userdomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

const profileRefreshSeconds = 2

// UserAPI serves the user profile page.
type UserAPI struct {
	query    userports.Query
	mutation userports.Mutation
	logger   *slog.Logger
}

// NewUserAPI wires dependencies.
func NewUserAPI(query userports.Query, mutation userports.Mutation, logger *slog.Logger) UserAPI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return UserAPI{query: query, mutation: mutation, logger: logger}
}

type profileView struct {
	Page   userapp.ProfilePage
	Errors userapp.FieldErrors
	Button form.Button
}

type userResponse struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name, AddressLine1: u.AddressLine1, City: u.City, Country: u.Country}
}

// Get /user-profile
// Shows the signed-in user's profile form
func (api *UserAPI) GetUserProfile(c *gin.Context) {
	subject := subjectFrom(c)
	page := userapp.BuildProfilePage(api.query.GetMyUser(c.Request.Context(), subject), api.mutation.IsLoading(subject))
	if wantsJSON(c) {
		api.respondProfileJSON(c, page)
		return
	}
	view := newPage(c, "User Profile", profileView{Page: page, Button: form.SubmitButton(page.IsLoading)})
	if page.State == userapp.PageLoading {
		view.RefreshSeconds = profileRefreshSeconds
	}
	if c.Query("saved") != "" {
		view.Flash = "User profile updated!"
	}
	renderPage(c, http.StatusOK, "user_profile.tmpl", view)
}

// Post /user-profile
// Saves the profile form
func (api *UserAPI) UpdateUserProfile(c *gin.Context) {
	ctx := c.Request.Context()
	subject := subjectFrom(c)
	var draft userapp.ProfileDraft
	if err := c.ShouldBind(&draft); err != nil {
		if wantsJSON(c) {
			respondProblemBadRequest(c, err)
			return
		}
		renderPage(c, http.StatusBadRequest, "error.tmpl", newPage(c, "User Profile", "The profile form could not be read."))
		return
	}

	page := userapp.BuildProfilePage(api.query.GetMyUser(ctx, subject), false)
	if page.State != userapp.PageReady {
		if wantsJSON(c) {
			api.respondProfileJSON(c, page)
			return
		}
		view := newPage(c, "User Profile", profileView{Page: page})
		renderPage(c, http.StatusServiceUnavailable, "user_profile.tmpl", view)
		return
	}

	draft.Email = page.User.Email
	user, errs := draft.Validate(page.User)
	if len(errs) > 0 {
		if wantsJSON(c) {
			respondValidation(c, errs)
			return
		}
		page.Form = &draft
		renderPage(c, http.StatusBadRequest, "user_profile.tmpl", newPage(c, "User Profile", profileView{Page: page, Errors: errs, Button: form.SubmitButton(false)}))
		return
	}

	if err := api.mutation.UpdateMyUser(ctx, subject, user); err != nil {
		api.logger.ErrorContext(ctx, "failed to update user profile", slog.String("subject", subject), slog.String("error", err.Error()))
		if wantsJSON(c) {
			respondError(c, err)
			return
		}
		page.Form = &draft
		view := newPage(c, "User Profile", profileView{Page: page, Button: form.SubmitButton(false)})
		view.Error = "Unable to update user profile"
		renderPage(c, statusForError(err), "user_profile.tmpl", view)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, toUserResponse(user))
		return
	}
	c.Redirect(http.StatusSeeOther, "/user-profile?saved=1")
}

func (api *UserAPI) respondProfileJSON(c *gin.Context, page userapp.ProfilePage) {
	switch page.State {
	case userapp.PageLoading:
		c.Header("Retry-After", "2")
		c.JSON(http.StatusAccepted, gin.H{"status": string(page.State), "message": page.Message})
	case userapp.PageUnavailable:
		respondError(c, userports.ErrNotFound)
	default:
		c.JSON(http.StatusOK, toUserResponse(page.User))
	}
}

func subjectFrom(c *gin.Context) string {
	session, ok := identityports.SessionFrom(c.Request.Context())
	if !ok {
		return ""
	}
	return session.Identity.Subject
}
