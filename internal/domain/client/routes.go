package client

import (
	"github.com/gin-gonic/gin"

	"devisportal/internal/middleware"
)

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients")
	{
		clients.GET("/", middleware.AdminOnly(), h.List)
		clients.POST("/", middleware.AdminOnly(), h.Create)
		clients.GET("/me/", h.Me)
		clients.GET("/:id/", h.Get)
		clients.PUT("/:id/", middleware.AdminOnly(), h.Update)
		clients.DELETE("/:id/", middleware.AdminOnly(), h.Delete)
		clients.GET("/:id/historique/", h.History)
	}
	rg.POST("/historique/create/", middleware.AdminOnly(), h.CreateHistory)
}
