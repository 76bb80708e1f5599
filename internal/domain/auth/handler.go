package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"devisportal/internal/pkg/response"
	"devisportal/internal/pkg/validator"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ClientLogin handles POST /api/client/token/
func (h *Handler) ClientLogin(c *gin.Context) {
	h.login(c, RoleClient)
}

// AdminLogin handles POST /api/token/
func (h *Handler) AdminLogin(c *gin.Context) {
	h.login(c, RoleAdmin)
}

func (h *Handler) login(c *gin.Context, role UserRole) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req, role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokens)
}

// Refresh handles POST /api/token/refresh/
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bind(c, &req) {
		return
	}
	tokens, err := h.service.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokens)
}

// Register handles POST /api/register/
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res)
}

// VerifyPhone handles POST /api/phone/verify/
func (h *Handler) VerifyPhone(c *gin.Context) {
	var req VerifyPhoneRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.VerifyPhone(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Téléphone vérifié"})
}

// PasswordReset handles POST /api/password-reset/
func (h *Handler) PasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.RequestPasswordReset(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Si un compte existe, un email de réinitialisation a été envoyé."})
}

// PasswordResetConfirm handles POST /api/password-reset-confirm/
func (h *Handler) PasswordResetConfirm(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Mot de passe réinitialisé avec succès."})
}

// ChangePassword handles POST /api/change-password/
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), c.GetInt64("user_id"), req); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Mot de passe modifié avec succès."})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email ou mot de passe incorrect")
	case errors.Is(err, ErrInvalidRefreshToken):
		response.Error(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is missing or invalid")
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "Cet email est déjà utilisé")
	case errors.Is(err, ErrInvalidVerificationCodeFormat):
		response.Error(c, http.StatusBadRequest, "INVALID_CODE_FORMAT", "Verification code must be exactly 6 digits")
	case errors.Is(err, ErrInvalidVerificationCode):
		response.Error(c, http.StatusBadRequest, "INVALID_CODE", "Invalid or expired verification code")
	case errors.Is(err, ErrTooManyAttempts):
		response.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many invalid verification attempts")
	case errors.Is(err, ErrInvalidResetToken):
		response.Error(c, http.StatusBadRequest, "INVALID_RESET_TOKEN", "Lien invalide ou expiré")
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
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
