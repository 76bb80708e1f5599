package catalog

import (
	"github.com/gin-gonic/gin"

	"devisportal/internal/middleware"
)

// RegisterPublicRoutes mounts the anonymous catalogue reads.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/services/", h.Offerings)
	rg.GET("/testimonials/", h.Testimonials)
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/testimonials/create/", middleware.ClientOnly(), h.CreateTestimonial)

	admin := rg.Group("/admin", middleware.AdminOnly())
	{
		admin.POST("/services/", h.CreateOffering)
		admin.PUT("/services/:id/", h.UpdateOffering)
		admin.DELETE("/services/:id/", h.DeleteOffering)

		admin.GET("/testimonials/", h.AdminTestimonials)
		admin.PUT("/testimonials/:id/approve/", h.ApproveTestimonial)
		admin.DELETE("/testimonials/:id/", h.DeleteTestimonial)
	}
}
