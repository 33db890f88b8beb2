package portalserver

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/oidc"
	identityapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/application"
	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

// AuthAPI handles the hosted-login round trip and session resolution.
type AuthAPI struct {
	service        *identityapp.Service
	provider       *oidc.Provider
	logoutReturnTo string
	onLogout       func(subject string)
	logger         *slog.Logger
}

// NewAuthAPI wires dependencies. logoutReturnTo is where the identity
// provider sends the browser after logout.
func NewAuthAPI(service *identityapp.Service, provider *oidc.Provider, logoutReturnTo string, logger *slog.Logger) AuthAPI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return AuthAPI{service: service, provider: provider, logoutReturnTo: logoutReturnTo, logger: logger}
}

// OnLogout returns a copy of api that calls fn with the subject of every
// session that logs out.
func (api AuthAPI) OnLogout(fn func(subject string)) AuthAPI {
	api.onLogout = fn
	return api
}

// ResolveSession loads the session named by the session cookie onto the
// request context. Missing, unknown and expired sessions leave the request
// anonymous.
func (api *AuthAPI) ResolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(oidc.SessionCookieName)
		if err != nil || token == "" || api.service == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		session, err := api.service.Resolve(ctx, token)
		switch {
		case err != nil:
			api.logger.WarnContext(ctx, "failed to resolve session", slog.String("error", err.Error()))
		case session == nil:
			api.provider.ClearSession(c.Writer)
		default:
			c.Request = c.Request.WithContext(identityports.WithSession(ctx, session))
		}
		c.Next()
	}
}

// RequireSession stops anonymous requests: browsers go home, JSON clients
// get a 401 problem.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identityports.SessionFrom(c.Request.Context()); ok {
			c.Next()
			return
		}
		if wantsJSON(c) {
			respondError(c, identityports.ErrUnauthorized)
		} else {
			c.Redirect(http.StatusSeeOther, "/")
		}
		c.Abort()
	}
}

// Post /login
// Redirects to the hosted login page
func (api *AuthAPI) Login(c *gin.Context) {
	if err := api.provider.LoginWithRedirect(c.Writer, c.Request); err != nil {
		api.logger.ErrorContext(c.Request.Context(), "login redirect failed", slog.String("error", err.Error()))
		renderPage(c, http.StatusInternalServerError, "error.tmpl", newPage(c, "Log In", "Login is unavailable right now."))
	}
}

// Post /auth/callback
// Completes the login started by /login
func (api *AuthAPI) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	var callback identityapp.CallbackForm
	if err := c.ShouldBind(&callback); err != nil {
		api.rejectCallback(c, err)
		return
	}
	attempt, err := api.provider.ReadLoginAttempt(c.Writer, c.Request)
	if err != nil {
		api.rejectCallback(c, err)
		return
	}
	session, err := api.service.CompleteLogin(ctx, attempt, callback)
	if err != nil {
		api.rejectCallback(c, err)
		return
	}
	api.provider.SetSession(c.Writer, session)
	c.Redirect(http.StatusSeeOther, attempt.ReturnTo)
}

func (api *AuthAPI) rejectCallback(c *gin.Context, err error) {
	api.logger.WarnContext(c.Request.Context(), "login callback rejected", slog.String("error", err.Error()))
	if wantsJSON(c) {
		respondError(c, err)
		return
	}
	renderPage(c, http.StatusBadRequest, "error.tmpl", newPage(c, "Log In", "We could not complete your login. Please try again."))
}

// Post /logout
// Ends the session and logs out of the identity provider
func (api *AuthAPI) Logout(c *gin.Context) {
	token, _ := c.Cookie(oidc.SessionCookieName)
	if session, ok := identityports.SessionFrom(c.Request.Context()); ok && api.onLogout != nil {
		api.onLogout(session.Identity.Subject)
	}
	target, err := api.service.Logout(c.Request.Context(), token, api.logoutReturnTo)
	api.provider.ClearSession(c.Writer)
	if err != nil {
		api.logger.ErrorContext(c.Request.Context(), "logout failed", slog.String("error", err.Error()))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}
