package payment

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/response"
	"devisportal/internal/pkg/validator"
)

type Handler struct {
	service     *Service
	frontendURL string
}

func NewHandler(service *Service, frontendURL string) *Handler {
	return &Handler{service: service, frontendURL: frontendURL}
}

// CreateIntent handles POST /api/payment/:id/intent/
func (h *Handler) CreateIntent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sess, err := h.service.Begin(c.Request.Context(), actor.FromGin(c), ProviderStripe, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, IntentResponse{
		ClientSecret: sess.ClientSecret,
		PaymentID:    sess.ID,
		RiskLevel:    resultOf(sess).RiskLevel,
	})
}

// Confirm handles POST /api/payment/:id/confirm/ where id is the payment session.
func (h *Handler) Confirm(c *gin.Context) {
	res, err := h.service.Complete(c.Request.Context(), actor.FromGin(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ConfirmResponse{Status: res.Outcome, FactureID: res.FactureID, RiskLevel: res.RiskLevel})
}

// CreatePayPalOrder handles POST /api/payment/paypal/:id/create/
func (h *Handler) CreatePayPalOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sess, err := h.service.Begin(c.Request.Context(), actor.FromGin(c), ProviderPayPal, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, PayPalOrderResponse{OrderID: sess.ProviderRef, PaymentID: sess.ID, ApproveURL: sess.ApproveURL})
}

// ExecutePayPal handles POST /api/payment/paypal/:id/execute/ {order_id}
func (h *Handler) ExecutePayPal(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	res, err := h.service.ExecutePayPal(c.Request.Context(), actor.FromGin(c), id, req.OrderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ExecuteResponse{
		Status:      res.Outcome,
		FactureID:   res.FactureID,
		RedirectURL: h.successURL(res.FactureID),
	})
}

// ExecuteRedirect handles GET /api/payment/paypal/execute/?token=&PayerID=
// PayPal orders append token; the legacy payments flow sent paymentId.
func (h *Handler) ExecuteRedirect(c *gin.Context) {
	ref := c.Query("token")
	if ref == "" {
		ref = c.Query("paymentId")
	}
	if ref == "" || c.Query("PayerID") == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "paymentId et PayerID requis")
		return
	}
	res, err := h.service.CompleteRedirect(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.successURL(res.FactureID))
}

func (h *Handler) successURL(factureID int64) string {
	return fmt.Sprintf("%s/payment/success/%d", h.frontendURL, factureID)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var pe *ProviderError
	switch {
	case errors.As(err, &pe):
		response.Error(c, http.StatusBadGateway, "PROVIDER_ERROR", pe.Message)
	case errors.Is(err, ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Paiement non trouvé")
	case errors.Is(err, ErrFactureNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Facture non trouvée")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrAlreadyPaid):
		response.Error(c, http.StatusConflict, "ALREADY_PAID", "Facture déjà payée")
	case errors.Is(err, ErrOrderMismatch):
		response.Error(c, http.StatusConflict, "ORDER_MISMATCH", err.Error())
	case errors.Is(err, ErrInvalidAmount):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrProviderDisabled):
		response.Error(c, http.StatusServiceUnavailable, "PROVIDER_DISABLED", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}
