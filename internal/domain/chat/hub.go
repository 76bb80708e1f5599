package chat

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 8 * 1024
)

// connection is one browser tab talking to the bot
type connection struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks live chat sockets so they can be counted and closed on shutdown.
type Hub struct {
	bot     *Bot
	loggerf func(format string, args ...interface{})

	mu          sync.Mutex
	connections map[*connection]struct{}
	closed      bool
}

func NewHub(bot *Bot, loggerf func(format string, args ...interface{})) *Hub {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Hub{bot: bot, loggerf: loggerf, connections: make(map[*connection]struct{})}
}

// Count returns the number of open sockets.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Close disconnects every socket and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.connections {
		delete(h.connections, c)
		close(c.send)
	}
}

func (h *Hub) register(c *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.connections[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// ServeWS runs the socket until the peer disconnects. It blocks.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64) {
	c := &connection{userID: userID, conn: conn, send: make(chan []byte, 16)}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	h.loggerf("level=info msg=chat socket opened user_id=%d", userID)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.loggerf("level=info msg=chat socket closed user_id=%d", c.userID)
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.loggerf("level=warn msg=chat socket error user_id=%d err=%v", c.userID, err)
			}
			return
		}

		msg := parseFrame(raw)
		if msg.Type == "ping" {
			h.push(c, NewPongEvent())
			continue
		}
		reply, err := h.bot.Reply(msg.Message)
		switch {
		case errors.Is(err, ErrEmptyMessage):
			h.push(c, NewErrorEvent("EMPTY_MESSAGE", "Le message est vide."))
		case errors.Is(err, ErrTooLong):
			h.push(c, NewErrorEvent("MESSAGE_TOO_LONG", "Le message est trop long."))
		default:
			h.push(c, NewReplyEvent(reply))
		}
	}
}

func (h *Hub) push(c *connection, event *WSServerMessage) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		// slow reader, drop
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
