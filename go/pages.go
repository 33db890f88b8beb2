package portalserver

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/form"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// LoadTemplates parses the embedded page templates.
func LoadTemplates() (*template.Template, error) {
	return template.New("portal").Funcs(template.FuncMap{
		"menuKey": form.MenuItemKey,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// Page is the data every template receives.
type Page struct {
	Title     string
	MainNav   MainNav
	MobileNav MobileNav
	Flash     string
	Error     string
	// RefreshSeconds asks the browser to reload, used while data is loading.
	RefreshSeconds int
	Content        any
}

func statusFrom(c *gin.Context) identitydomain.Status {
	session, ok := identityports.SessionFrom(c.Request.Context())
	if !ok {
		return identitydomain.Anonymous()
	}
	return session.Status()
}

func newPage(c *gin.Context, title string, content any) Page {
	status := statusFrom(c)
	return Page{
		Title:     title,
		MainNav:   BuildMainNav(status),
		MobileNav: BuildMobileNav(status),
		Content:   content,
	}
}

func renderPage(c *gin.Context, code int, name string, page Page) {
	c.HTML(code, name, page)
}
