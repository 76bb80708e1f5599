package chat

import "encoding/json"

// WSClientMessage is a JSON frame from the browser. Plain text frames are
// accepted too and read as the message itself.
type WSClientMessage struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

type WSServerMessage struct {
	Type      string `json:"type,omitempty"`
	Reply     string `json:"reply,omitempty"`
	ErrorCode string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewReplyEvent(reply string) *WSServerMessage {
	return &WSServerMessage{Reply: reply}
}

func NewPongEvent() *WSServerMessage {
	return &WSServerMessage{Type: "pong"}
}

func NewErrorEvent(code, message string) *WSServerMessage {
	return &WSServerMessage{Type: "error", ErrorCode: code, Error: message}
}

func parseFrame(raw []byte) WSClientMessage {
	var msg WSClientMessage
	if len(raw) > 0 && raw[0] == '{' && json.Unmarshal(raw, &msg) == nil {
		return msg
	}
	return WSClientMessage{Message: string(raw)}
}
