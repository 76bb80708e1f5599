package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devisportal/internal/middleware"
	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Stats handles GET /api/admin/dashboard/
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// PaidClients handles GET /api/admin/paid-clients/?search=
func (h *Handler) PaidClients(c *gin.Context) {
	list, err := h.service.PaidClients(c.Request.Context(), actor.FromGin(c), c.Query("search"))
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin", middleware.AdminOnly())
	admin.GET("/dashboard/", h.Stats)
	admin.GET("/paid-clients/", h.PaidClients)
}
