package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/response"
	"devisportal/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Offerings handles GET /api/services/?category=
func (h *Handler) Offerings(c *gin.Context) {
	list, err := h.service.Offerings(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

func (h *Handler) CreateOffering(c *gin.Context) {
	var req OfferingRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.service.CreateOffering(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, o)
}

func (h *Handler) UpdateOffering(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req OfferingRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.service.UpdateOffering(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, o)
}

func (h *Handler) DeleteOffering(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteOffering(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Testimonials handles GET /api/testimonials/
func (h *Handler) Testimonials(c *gin.Context) {
	list, err := h.service.PublicTestimonials(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// CreateTestimonial handles POST /api/testimonials/create/
func (h *Handler) CreateTestimonial(c *gin.Context) {
	var req CreateTestimonialRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.SubmitTestimonial(c.Request.Context(), actor.FromGin(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, t)
}

func (h *Handler) AdminTestimonials(c *gin.Context) {
	list, err := h.service.AllTestimonials(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

func (h *Handler) ApproveTestimonial(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.service.ApproveTestimonial(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, t)
}

func (h *Handler) DeleteTestimonial(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTestimonial(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOfferingNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service introuvable")
	case errors.Is(err, ErrTestimonialNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Témoignage introuvable")
	case errors.Is(err, ErrNoClient):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Seuls les clients peuvent laisser un avis.")
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidRating), errors.Is(err, ErrEmptyContent):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return false
	}
	return true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}
