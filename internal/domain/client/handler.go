package client

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

// List handles GET /api/clients/
func (h *Handler) List(c *gin.Context) {
	clients, err := h.service.List(c.Request.Context())
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list clients")
		return
	}
	response.JSON(c, http.StatusOK, clients)
}

// Create handles POST /api/clients/
func (h *Handler) Create(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, created)
}

// Get handles GET /api/clients/:id/
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cl, err := h.service.Get(c.Request.Context(), actor.FromGin(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cl)
}

// Me handles GET /api/clients/me/
func (h *Handler) Me(c *gin.Context) {
	cl, err := h.service.Me(c.Request.Context(), actor.FromGin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cl)
}

// Update handles PUT /api/clients/:id/
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// Delete handles DELETE /api/clients/:id/
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// History handles GET /api/clients/:id/historique/
func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), actor.FromGin(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// CreateHistory handles POST /api/historique/create/
func (h *Handler) CreateHistory(c *gin.Context) {
	var req CreateHistoriqueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}
	entry, err := h.service.AddHistorique(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, entry)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Client introuvable")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrEmailExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "Cet email est déjà utilisé")
	case errors.Is(err, ErrClientInUse):
		response.Error(c, http.StatusConflict, "CLIENT_IN_USE", "Client has devis or factures")
	case errors.Is(err, ErrEmptyAction):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}
