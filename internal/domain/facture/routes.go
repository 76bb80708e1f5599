package facture

import (
	"github.com/gin-gonic/gin"

	"devisportal/internal/middleware"
)

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	factures := rg.Group("/factures")
	{
		factures.GET("/", h.List)
		factures.POST("/", middleware.AdminOnly(), h.Create)
		factures.GET("/client/", middleware.ClientOnly(), h.ListMine)
		factures.GET("/:id/", h.Get)
		factures.PUT("/:id/", middleware.AdminOnly(), h.Update)
		factures.DELETE("/:id/", middleware.AdminOnly(), h.Delete)
		factures.POST("/:id/send-email/", middleware.AdminOnly(), h.SendEmail)
	}

	rg.GET("/facture/:id/pdf/", h.PDF)
	rg.POST("/facture/ocr/", middleware.AdminOnly(), h.ImportOCR)
}
