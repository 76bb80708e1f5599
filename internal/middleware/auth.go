package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devisportal/internal/pkg/jwt"
	"devisportal/internal/pkg/response"
)

// JWTAuth validates the bearer access token and stores the principal in the context
// under user_id, client_id and role.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		role := claims.Role
		if role == "" {
			role = "client"
		}
		c.Set("user_id", claims.UserID)
		c.Set("client_id", claims.ClientID)
		c.Set("role", role)
		c.Next()
	}
}

// StaticTokenAuth protects operational endpoints (metrics) with a fixed bearer token.
// An empty token leaves the endpoint open, which is the local development setup.
func StaticTokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			logAuthFailure(c, http.StatusUnauthorized, "invalid_auth_format")
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}
		if parts[1] != token {
			logAuthFailure(c, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid token")
			c.Abort()
			return
		}

		c.Next()
	}
}
