package app

import "github.com/gin-gonic/gin"

// Module is one dashboard screen. It mounts its read-only JSON routes on api
// and its HTML and htmx routes on pages, which carries CSRF protection.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}
