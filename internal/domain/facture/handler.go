package facture

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devisportal/internal/domain/upload"
	"devisportal/internal/ocr"
	"devisportal/internal/pdf"
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

// List handles GET /api/factures/?status=
func (h *Handler) List(c *gin.Context) {
	status, err := ParseStatus(c.Query("status"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Statut invalide.")
		return
	}
	list, err := h.service.List(c.Request.Context(), actor.FromGin(c), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// ListMine handles GET /api/factures/client/
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), actor.FromGin(c), "")
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Create handles POST /api/factures/
func (h *Handler) Create(c *gin.Context) {
	var req CreateFactureRequest
	if !bind(c, &req) {
		return
	}
	f, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, f)
}

// Get handles GET /api/factures/:id/
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	f, err := h.service.Get(c.Request.Context(), actor.FromGin(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, f)
}

// Update handles PUT /api/factures/:id/
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateFactureRequest
	if !bind(c, &req) {
		return
	}
	f, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, f)
}

// Delete handles DELETE /api/factures/:id/
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

// SendEmail handles POST /api/factures/:id/send-email/
func (h *Handler) SendEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.SendReceipt(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": "Email de confirmation en cours d'envoi."})
}

// PDF handles GET /api/facture/:id/pdf/
func (h *Handler) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, name, err := h.service.RenderPDF(c.Request.Context(), actor.FromGin(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// ImportOCR handles POST /api/facture/ocr/ (multipart "image", optional "client_id")
func (h *Handler) ImportOCR(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "MISSING_FILE", "Aucune image ou PDF fourni")
		return
	}
	var clientID int64
	if raw := c.PostForm("client_id"); raw != "" {
		clientID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || clientID <= 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid client_id")
			return
		}
	}

	src, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", "Cannot read image")
		return
	}
	defer src.Close()

	f, err := h.service.ImportOCR(c.Request.Context(), actor.FromGin(c), clientID, upload.File{Name: fh.Filename, Size: fh.Size, Reader: src})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, f)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Facture non trouvée")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrDuplicateNumber):
		response.Error(c, http.StatusConflict, "DUPLICATE_NUMBER", "Ce numéro de facture existe déjà")
	case errors.Is(err, ErrNotPaid):
		response.Error(c, http.StatusConflict, "NOT_PAID", "La facture n'est pas payée")
	case errors.Is(err, ErrNoText):
		response.Error(c, http.StatusBadRequest, "NO_TEXT", "Aucun texte détecté dans le fichier")
	case errors.Is(err, ErrNoClient):
		response.Error(c, http.StatusBadRequest, "NO_CLIENT", "Aucun client dans la base.")
	case errors.Is(err, ErrClientNotFound),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidLine):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, upload.ErrInvalidMimeType),
		errors.Is(err, upload.ErrInvalidExt),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrFileTooLarge):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
	case errors.Is(err, pdf.ErrRenderer):
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "PDF_RENDER_FAILED", "Erreur lors de la génération du PDF")
	case errors.Is(err, ocr.ErrUnavailable):
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "OCR_FAILED", "Erreur lors du traitement OCR")
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
