// Package portalserver is the server-rendered restaurant portal: gin routes,
// HTML pages and problem+json errors for JSON clients.
package portalserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Protected routes require a signed-in session.
	Protected bool
}

// ApiHandleFunctions bundles the page handlers.
type ApiHandleFunctions struct {
	AuthAPI       AuthAPI
	HomeAPI       HomeAPI
	RestaurantAPI RestaurantAPI
	UserAPI       UserAPI
}

// NewRouter returns a new router with templates and session resolution installed.
func NewRouter(handleFunctions ApiHandleFunctions, middleware ...gin.HandlerFunc) (*gin.Engine, error) {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions, middleware...)
}

// NewRouterWithGinEngine adds the portal routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, middleware ...gin.HandlerFunc) (*gin.Engine, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(templates)
	router.Use(middleware...)
	router.Use(handleFunctions.AuthAPI.ResolveSession())
	for _, route := range getRoutes(handleFunctions) {
		handlers := []gin.HandlerFunc{}
		if route.Protected {
			handlers = append(handlers, RequireSession())
		}
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router, nil
}

// DefaultHandleFunc is the default handler for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Home",
			http.MethodGet,
			"/",
			handleFunctions.HomeAPI.Home,
			false,
		},
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			handleFunctions.HomeAPI.Healthz,
			false,
		},
		{
			"Login",
			http.MethodPost,
			"/login",
			handleFunctions.AuthAPI.Login,
			false,
		},
		{
			"AuthCallback",
			http.MethodPost,
			"/auth/callback",
			handleFunctions.AuthAPI.Callback,
			false,
		},
		{
			"Logout",
			http.MethodPost,
			"/logout",
			handleFunctions.AuthAPI.Logout,
			false,
		},
		{
			"GetUserProfile",
			http.MethodGet,
			"/user-profile",
			handleFunctions.UserAPI.GetUserProfile,
			true,
		},
		{
			"UpdateUserProfile",
			http.MethodPost,
			"/user-profile",
			handleFunctions.UserAPI.UpdateUserProfile,
			true,
		},
		{
			"GetManageRestaurant",
			http.MethodGet,
			"/manage-restaurant",
			handleFunctions.RestaurantAPI.GetManageRestaurant,
			true,
		},
		{
			"PostManageRestaurant",
			http.MethodPost,
			"/manage-restaurant",
			handleFunctions.RestaurantAPI.PostManageRestaurant,
			true,
		},
	}
}
