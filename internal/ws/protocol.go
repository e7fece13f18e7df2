package ws

import (
	"encoding/json"

	"groupchat/backend/internal/models"
)

// Event names. The client sends a frame naming the event; requests that want
// an acknowledgment carry an ackId and receive exactly one ack frame with the
// same id, holding either an error or a result.
const (
	EventChatMessage    = "chat message"
	EventGetHistory     = "get history"
	EventSavePushURL    = "save push url"
	EventRemovePushURL  = "remove push url"
	EventGetPushURLs    = "get push urls"
	EventClientTest     = "client test"
	EventServerResponse = "server response"
	EventConnectionTest = "connection test"
	EventAck            = "ack"
)

// Frame is the envelope for client-to-server requests.
type Frame struct {
	Event string          `json:"event"`
	AckID uint64          `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outFrame is the envelope for server-initiated events (broadcasts, the
// connection handshake, test responses).
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ackFrame answers one request. Error is null on success, a message string on
// failure; Data carries the result when there is one.
type ackFrame struct {
	Event string  `json:"event"`
	AckID uint64  `json:"ackId"`
	Error *string `json:"error"`
	Data  any     `json:"data,omitempty"`
}

type chatMessageRequest struct {
	Content string        `json:"content"`
	Quote   *models.Quote `json:"quote,omitempty"`
}

type historyRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search,omitempty"`
}
