// Package actor carries the authenticated principal from the gin context into services.
package actor

import "github.com/gin-gonic/gin"

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Actor is the caller of an operation. ClientID is zero for admins.
type Actor struct {
	UserID   int64
	ClientID int64
	Role     string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Owns reports whether the actor may act on a record belonging to clientID.
func (a Actor) Owns(clientID int64) bool {
	return a.IsAdmin() || (a.ClientID != 0 && a.ClientID == clientID)
}

// FromGin reads the keys set by middleware.JWTAuth.
func FromGin(c *gin.Context) Actor {
	return Actor{
		UserID:   c.GetInt64("user_id"),
		ClientID: c.GetInt64("client_id"),
		Role:     c.GetString("role"),
	}
}
