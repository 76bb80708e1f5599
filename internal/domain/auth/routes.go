package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts the unauthenticated endpoints. limit throttles
// the credential-guessing surface.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	rg.POST("/client/token/", limit, h.ClientLogin)
	rg.POST("/token/", limit, h.AdminLogin)
	rg.POST("/token/refresh/", h.Refresh)
	rg.POST("/register/", limit, h.Register)
	rg.POST("/phone/verify/", limit, h.VerifyPhone)
	rg.POST("/password-reset/", limit, h.PasswordReset)
	rg.POST("/password-reset-confirm/", limit, h.PasswordResetConfirm)
}

// RegisterProtectedRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/change-password/", h.ChangePassword)
}
