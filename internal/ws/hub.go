// Package ws owns the set of connected sessions and relays every successfully
// stored message to all of them. All session events funnel through one loop,
// so two events never interleave mid-task; ordering between sessions is
// arrival order.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"

	"groupchat/backend/internal/metrics"
	"groupchat/backend/internal/push"
	"groupchat/backend/internal/render"
	"groupchat/backend/internal/service"
	"groupchat/backend/pkg/errors"
	"groupchat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	// The chat surface is open; the original service served cross-origin
	// clients with origin "*".
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundFrame struct {
	client *Client
	frame  Frame
}

// Config carries the hub's tunables.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxMessageSize  int64
	RateLimit       rate.Limit
	RateBurst       int
}

// Hub relays stored messages to every active session and answers per-session
// history and subscription requests.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	frames     chan inboundFrame

	messages      *service.MessageService
	subscriptions *service.SubscriptionService
	dispatcher    *push.Dispatcher

	defaultPageSize int
	maxPageSize     int
	maxMessageSize  int64
	rateLimit       rate.Limit
	rateBurst       int

	log *logger.Logger
}

func NewHub(messages *service.MessageService, subscriptions *service.SubscriptionService, dispatcher *push.Dispatcher, cfg Config, log *logger.Logger) *Hub {
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = 100
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 64 << 10
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 10
	}
	return &Hub{
		clients:         make(map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		frames:          make(chan inboundFrame, 64),
		messages:        messages,
		subscriptions:   subscriptions,
		dispatcher:      dispatcher,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		maxMessageSize:  cfg.MaxMessageSize,
		rateLimit:       cfg.RateLimit,
		rateBurst:       cfg.RateBurst,
		log:             log.WithComponent("hub"),
	}
}

// Run processes session events one at a time until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.ActiveSessions.Set(float64(len(h.clients)))
			h.log.Info("session registered", "session_id", client.ID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				metrics.ActiveSessions.Set(float64(len(h.clients)))
				h.log.Info("session unregistered", "session_id", client.ID)
			}

		case in := <-h.frames:
			h.handleFrame(in.client, in.frame)
		}
	}
}

func (h *Hub) handleFrame(c *Client, frame Frame) {
	switch frame.Event {
	case EventChatMessage:
		h.handleChatMessage(c, frame)
	case EventGetHistory:
		h.handleGetHistory(c, frame)
	case EventSavePushURL:
		h.handleSavePushURL(c, frame)
	case EventRemovePushURL:
		h.handleRemovePushURL(c, frame)
	case EventGetPushURLs:
		c.sendAck(frame.AckID, "", h.subscriptions.ListAll())
	case EventClientTest:
		var text string
		if err := json.Unmarshal(frame.Data, &text); err != nil {
			h.log.Warn("malformed client test payload", "session_id", c.ID)
			return
		}
		c.sendEvent(EventServerResponse, "test message received: "+text)
	default:
		h.log.Warn("unknown event", "event", frame.Event, "session_id", c.ID)
		if frame.AckID != 0 {
			c.sendAck(frame.AckID, fmt.Sprintf("unknown event %q", frame.Event), nil)
		}
	}
}

// handleChatMessage persists the message, acks the poster, relays the stored
// record to every session including the poster, and hands the copy to the
// push dispatcher. A storage failure is surfaced only to the poster; nothing
// is broadcast or pushed.
func (h *Hub) handleChatMessage(c *Client, frame Frame) {
	var req chatMessageRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		c.sendAck(frame.AckID, "malformed chat message payload", nil)
		return
	}
	if req.Content == "" {
		c.sendAck(frame.AckID, "message content is required", nil)
		return
	}
	if !c.limiter.Allow() {
		c.sendAck(frame.AckID, "too many messages, slow down", nil)
		return
	}

	stored, err := h.messages.Append(req.Content)
	if err != nil {
		h.log.LogError(err, "message append failed", "session_id", c.ID)
		c.sendAck(frame.AckID, errors.FromError(err).Message, nil)
		return
	}
	metrics.MessagesStored.Inc()

	// Ack strictly before dispatch so push latency can never delay the
	// poster.
	c.sendAck(frame.AckID, "", stored)

	// The quote is echoed on the live payload only, never persisted. The
	// rendered markup folds the quoted context in when there is one.
	payload := *stored
	payload.Quote = req.Quote
	body := stored.Content
	if req.Quote != nil {
		body = render.WrapQuote(req.Quote.Timestamp, req.Quote.Content, body)
	}
	payload.HTML = render.Render(body, "")
	h.broadcast(outFrame{Event: EventChatMessage, Data: payload})

	h.dispatcher.Dispatch(*stored, h.subscriptions.ListAll())
}

func (h *Hub) handleGetHistory(c *Client, frame Frame) {
	req := historyRequest{Page: 1, Limit: h.defaultPageSize}
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.sendAck(frame.AckID, "malformed history request", nil)
			return
		}
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = h.defaultPageSize
	}
	if req.Limit > h.maxPageSize {
		req.Limit = h.maxPageSize
	}

	page, err := h.messages.Page(req.Page, req.Limit)
	if err != nil {
		h.log.LogError(err, "history read failed", "session_id", c.ID)
		c.sendAck(frame.AckID, errors.FromError(err).Message, nil)
		return
	}
	for i := range page.Messages {
		page.Messages[i].HTML = render.Render(page.Messages[i].Content, req.Search)
	}
	c.sendAck(frame.AckID, "", page)
}

func (h *Hub) handleSavePushURL(c *Client, frame Frame) {
	var url string
	if err := json.Unmarshal(frame.Data, &url); err != nil {
		c.sendAck(frame.AckID, "malformed push url payload", nil)
		return
	}

	status, err := h.subscriptions.Add(url)
	if err != nil {
		c.sendAck(frame.AckID, errors.FromError(err).Message, nil)
		return
	}
	c.sendAck(frame.AckID, "", status)
}

func (h *Hub) handleRemovePushURL(c *Client, frame Frame) {
	var url string
	if err := json.Unmarshal(frame.Data, &url); err != nil {
		c.sendAck(frame.AckID, "malformed push url payload", nil)
		return
	}

	status, err := h.subscriptions.Remove(url)
	if err != nil {
		c.sendAck(frame.AckID, errors.FromError(err).Message, nil)
		return
	}
	c.sendAck(frame.AckID, "", status)
}

// broadcast relays a frame to every active session. Broadcast happens only
// after the store confirmed the write, so no session ever observes a message
// that is not durably recorded.
func (h *Hub) broadcast(frame outFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("failed to marshal broadcast", "error", err.Error())
		return
	}
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			client.closeSend()
			h.log.Warn("session dropped, send buffer blocked", "session_id", client.ID)
		}
	}
	metrics.Broadcasts.Inc()
	metrics.ActiveSessions.Set(float64(len(h.clients)))
}

// ServeWs upgrades an HTTP request into a chat session and starts its pumps.
func ServeWs(hub *Hub, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	sessionID := uuid.New().String()
	client := &Client{
		ID:      sessionID,
		conn:    conn,
		send:    make(chan []byte, 256),
		hub:     hub,
		limiter: rate.NewLimiter(hub.rateLimit, hub.rateBurst),
		log:     hub.log.WithSessionID(sessionID),
	}

	hub.register <- client

	go client.WritePump()
	go client.ReadPump()

	// Handshake: the session is active once the server announces itself.
	client.sendEvent(EventConnectionTest, "server connection established")
}
