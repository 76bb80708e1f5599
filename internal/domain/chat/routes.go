package chat

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts POST /chat/ on a JWT-protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat/", h.Chat)
}

// RegisterSocketRoutes mounts the websocket, which authenticates itself from the query.
func (h *Handler) RegisterSocketRoutes(rg *gin.RouterGroup) {
	rg.GET("/chat/ws", h.WebSocket)
}
