package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/input"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 << 10

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

// Event names used in outgoing messages.
const (
	EventStateUpdate = "state_update"
	EventError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	SessionID string        `json:"session_id"`
	State     *engine.State `json:"state,omitempty"`
	Event     string        `json:"event,omitempty"`
	Data      interface{}   `json:"data,omitempty"`
}

// EventHandler applies input events received from a client of a session.
type EventHandler func(ctx context.Context, sessionID string, events []input.Event) error

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and broadcasts messages. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	count      chan countRequest
	done       chan struct{}

	handler EventHandler
	log     logrus.FieldLogger
}

// outbound is a message for every client of a session, or for one client
// when client is set.
type outbound struct {
	msg    *Message
	client *Client
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithEventHandler forwards inbound client events to fn.
func WithEventHandler(fn EventHandler) HubOption {
	return func(h *Hub) { h.handler = fn }
}

// WithLogger sets the hub logger.
func WithLogger(log logrus.FieldLogger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetEventHandler replaces the inbound event handler. Call before Run.
func (h *Hub) SetEventHandler(fn EventHandler) {
	h.handler = fn
}

// Run starts the hub's event loop and returns when ctx is done. A hub runs
// once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					close(client.send)
				}
			}
			h.sessions = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case out := <-h.broadcast:
			h.broadcastMessage(out)

		case req := <-h.count:
			req.reply <- len(h.sessions[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a session
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket: upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of clients attached to a session. It needs
// the Run loop.
func (h *Hub) ClientCount(sessionID string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{sessionID: sessionID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// BroadcastToSession sends a scene state update to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.State) {
	h.enqueue(&Message{
		SessionID: sessionID,
		State:     state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

func (h *Hub) enqueue(message *Message) {
	h.enqueueFor(message, nil)
}

func (h *Hub) enqueueFor(message *Message, client *Client) {
	select {
	case h.broadcast <- outbound{msg: message, client: client}:
	default:
		h.log.WithFields(logrus.Fields{
			"session": message.SessionID,
			"event":   message.Event,
		}).Warn("websocket: broadcast queue full, dropping message")
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.log.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(h.sessions[client.sessionID]),
	}).Info("websocket: client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	h.log.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(clients),
	}).Info("websocket: client unregistered")
}

// broadcastMessage sends a message to all clients in a session, or to the
// addressed client if it is still registered
func (h *Hub) broadcastMessage(out outbound) {
	data, err := json.Marshal(out.msg)
	if err != nil {
		h.log.WithError(err).Warn("websocket: failed to marshal broadcast message")
		return
	}

	for client := range h.sessions[out.msg.SessionID] {
		if out.client != nil && client != out.client {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.unregisterClient(client)
		}
	}
}

// DecodeEvents parses an inbound frame: a single event object, an array of
// events, or an object with an "events" array.
func DecodeEvents(data []byte) ([]input.Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	if data[0] == '[' {
		var events []input.Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("invalid event list: %w", err)
		}
		return events, nil
	}

	var batch struct {
		Events []input.Event `json:"events"`
	}
	if err := json.Unmarshal(data, &batch); err == nil && batch.Events != nil {
		return batch.Events, nil
	}

	var ev input.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return []input.Event{ev}, nil
}

// reply queues a message for this client only.
func (c *Client) reply(event string, data interface{}) {
	c.hub.enqueueFor(&Message{SessionID: c.sessionID, Event: event, Data: data}, c)
}

// readPump pumps messages from the WebSocket connection to the event handler
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("session", c.sessionID).Warn("websocket: read failed")
			}
			break
		}

		if c.hub.handler == nil {
			continue
		}
		events, err := DecodeEvents(data)
		if err != nil {
			c.reply(EventError, err.Error())
			continue
		}
		if err := c.hub.handler(context.Background(), c.sessionID, events); err != nil {
			c.reply(EventError, err.Error())
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
