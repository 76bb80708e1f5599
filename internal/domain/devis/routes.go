package devis

import (
	"github.com/gin-gonic/gin"

	"devisportal/internal/middleware"
)

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/public/devis/create/", middleware.ClientOnly(), h.Submit)

	devis := rg.Group("/devis")
	{
		devis.GET("/", middleware.AdminOnly(), h.List)
		devis.POST("/", middleware.AdminOnly(), h.Create)
		devis.GET("/list/", h.List)
		devis.GET("/:id/", h.Get)
		devis.PUT("/:id/", middleware.AdminOnly(), h.Update)
		devis.DELETE("/:id/", middleware.AdminOnly(), h.Delete)
		devis.PUT("/:id/update/", middleware.AdminOnly(), h.Decide)
		devis.GET("/:id/specification-pdf/", h.Specification)
	}

	rg.PUT("/admin/devis/:id/reject-counter-offer/", middleware.AdminOnly(), h.CounterOffer)
	rg.PUT("/client/devis/:id/counter-offer-response/", middleware.ClientOnly(), h.Respond)
}
