package portalserver

import (
	identitydomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
)

// MobileWelcomeTitle is the mobile menu title for anonymous visitors.
const MobileWelcomeTitle = "Welcome to OurFood.com!"

// NavLink is one navigation entry. Links with Method POST render as a form.
type NavLink struct {
	Label  string
	Href   string
	Method string
}

// NavVariant is the state a navigation component renders in.
type NavVariant string

const (
	NavAnonymous     NavVariant = "anonymous"
	NavAuthenticated NavVariant = "authenticated"
)

// MainNav is the desktop navigation. Anonymous visitors get the login action;
// signed-in users get a username menu.
type MainNav struct {
	Variant  NavVariant
	UserName string
	Links    []NavLink
	Login    NavLink
}

// MobileNav is the sheet-style mobile navigation.
type MobileNav struct {
	Variant NavVariant
	Title   string
	Links   []NavLink
	Login   NavLink
}

var loginLink = NavLink{Label: "Log In", Href: "/login", Method: "POST"}

func userLinks() []NavLink {
	return []NavLink{
		{Label: "Manage Restaurant", Href: "/manage-restaurant", Method: "GET"},
		{Label: "User Profile", Href: "/user-profile", Method: "GET"},
		{Label: "Log Out", Href: "/logout", Method: "POST"},
	}
}

// BuildMainNav derives the desktop navigation from identity status.
func BuildMainNav(status identitydomain.Status) MainNav {
	if !status.IsAuthenticated {
		return MainNav{Variant: NavAnonymous, Login: loginLink}
	}
	nav := MainNav{Variant: NavAuthenticated, Links: userLinks()}
	if status.User != nil {
		nav.UserName = status.User.DisplayName()
	}
	return nav
}

// BuildMobileNav derives the mobile navigation from identity status.
func BuildMobileNav(status identitydomain.Status) MobileNav {
	if !status.IsAuthenticated {
		return MobileNav{Variant: NavAnonymous, Title: MobileWelcomeTitle, Login: loginLink}
	}
	nav := MobileNav{Variant: NavAuthenticated, Links: userLinks()}
	if status.User != nil {
		nav.Title = status.User.Name
	}
	return nav
}
