package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role.(string) == r {
				c.Next()
				return
			}
		}

		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(actor.RoleAdmin)
}

// ClientOnly middleware requires client role
func ClientOnly() gin.HandlerFunc {
	return RequireRole(actor.RoleClient)
}
