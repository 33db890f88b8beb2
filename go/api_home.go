package portalserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomeAPI serves the landing page and the health probe.
type HomeAPI struct{}

// Get /
// Landing page
func (api *HomeAPI) Home(c *gin.Context) {
	renderPage(c, http.StatusOK, "home.tmpl", newPage(c, "Home", nil))
}

// Get /healthz
// Liveness probe
func (api *HomeAPI) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
