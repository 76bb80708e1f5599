package devis

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devisportal/internal/domain/upload"
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

// Submit handles POST /api/public/devis/create/
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if !bind(c, &req) {
		return
	}
	d, err := h.service.Submit(c.Request.Context(), actor.FromGin(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, SubmitResponse{Message: "Demande de devis soumise avec succès.", Devis: d})
}

// List handles GET /api/devis/ and GET /api/devis/list/
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), actor.FromGin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Create handles POST /api/devis/
func (h *Handler) Create(c *gin.Context) {
	var req CreateDevisRequest
	if !bind(c, &req) {
		return
	}
	d, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, d)
}

// Get handles GET /api/devis/:id/
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.service.Get(c.Request.Context(), actor.FromGin(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// Update handles PUT /api/devis/:id/
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateDevisRequest
	if !bind(c, &req) {
		return
	}
	d, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// Delete handles DELETE /api/devis/:id/
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

// Decide handles PUT /api/devis/:id/update/
func (h *Handler) Decide(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	action, err := DecisionAction(req.value())
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Statut invalide.")
		return
	}
	d, err := h.service.Decide(c.Request.Context(), id, action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// CounterOffer handles PUT /api/admin/devis/:id/reject-counter-offer/ (multipart)
func (h *Handler) CounterOffer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	text := c.PostForm("counter_offer")

	var spec *upload.File
	if fh, err := c.FormFile("specification_pdf"); err == nil {
		src, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_FILE", "Cannot read specification_pdf")
			return
		}
		defer src.Close()
		spec = &upload.File{Name: fh.Filename, Size: fh.Size, Reader: src}
	} else if !errors.Is(err, http.ErrMissingFile) {
		response.Error(c, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}

	d, err := h.service.CounterOffer(c.Request.Context(), actor.FromGin(c), id, text, spec)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// Respond handles PUT /api/client/devis/:id/counter-offer-response/
func (h *Handler) Respond(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RespondRequest
	if !bind(c, &req) {
		return
	}
	d, err := h.service.Respond(c.Request.Context(), actor.FromGin(c), id, req.Action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// Specification handles GET /api/devis/:id/specification-pdf/
func (h *Handler) Specification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, rc, err := h.service.Specification(c.Request.Context(), actor.FromGin(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": u.OriginalName}))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Devis non trouvé.")
	case errors.Is(err, ErrNoSpecification), errors.Is(err, upload.ErrUploadNotFound):
		response.Error(c, http.StatusNotFound, "NO_SPECIFICATION", "Aucun cahier des charges joint.")
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNoClient):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCounterOfferPending),
		errors.Is(err, ErrNoPendingCounterOffer):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ErrEmptyCounterOffer),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInconsistentCounterOffer),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrEmptyDescription):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, upload.ErrInvalidExt), errors.Is(err, upload.ErrInvalidMimeType):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", "Le cahier des charges doit être un fichier PDF.")
	case errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, upload.ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
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
