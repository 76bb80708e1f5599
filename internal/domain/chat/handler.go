package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"devisportal/internal/pkg/jwt"
	"devisportal/internal/pkg/response"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type Handler struct {
	bot      *Bot
	hub      *Hub
	tokens   *jwt.Service
	upgrader websocket.Upgrader
}

// NewHandler builds the chat endpoints. An empty origins list accepts any
// websocket origin, which is the local dev setup.
func NewHandler(bot *Bot, hub *Hub, tokens *jwt.Service, origins []string) *Handler {
	h := &Handler{bot: bot, hub: hub, tokens: tokens}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

// Chat handles POST /api/chat/
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	reply, err := h.bot.Reply(req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Le message est vide.")
		case errors.Is(err, ErrTooLong):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Le message est trop long.")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}
	response.JSON(c, http.StatusOK, ChatResponse{Reply: reply})
}

// WebSocket handles GET /api/chat/ws?token=ACCESS_TOKEN.
// Browsers cannot set headers on the upgrade request, so the token rides in the query.
func (h *Handler) WebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}
	h.hub.ServeWS(conn, claims.UserID)
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
