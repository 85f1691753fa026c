// Package websocket delivers real-time pharmacy events over WebSockets.
// Clients watching a pharmacy's inventory or turn board join that pharmacy's
// topic and receive every event broadcast to it. Delivery is best-effort:
// events are a signal to re-query, not a source of truth, so a subscriber
// that connects late simply re-fetches current state.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Event kinds published by the turn allocator and inventory ledger.
const (
	EventNewTurn          = "new_turn"
	EventTurnUpdated      = "turn_updated"
	EventInventoryUpdated = "inventory_updated"
)

// PharmacyTopic returns the topic name for a pharmacy's event scope.
func PharmacyTopic(pharmacyID int64) string {
	return fmt.Sprintf("pharmacy:%d", pharmacyID)
}

// Event represents a real-time notification sent to WebSocket clients.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an Event for a pharmacy scope, marshaling the payload.
func NewEvent(eventType string, pharmacyID int64, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:      eventType,
		Topic:     PharmacyTopic(pharmacyID),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// ClientMessage represents an inbound message from a WebSocket client.
// A viewer declares interest in exactly one pharmacy at a time; joining a
// second pharmacy leaves the first.
type ClientMessage struct {
	Action     string `json:"action"`
	PharmacyID int64  `json:"pharmacy_id"`
}

// EventPublisher defines the interface for publishing events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection.
type Client struct {
	ID    string
	Topic string // current pharmacy scope; empty until the first join
	Send  chan []byte
	hub   *Hub
	conn  Conn
}

// Hub is the central connection manager that tracks clients and their
// pharmacy subscriptions. All operations are thread-safe via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}            // all connected clients
}

// NewHub creates a new Hub ready to manage WebSocket clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// Register adds a client to the hub. The client is not subscribed to any
// pharmacy until it sends a join message.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	if client.Topic != "" {
		h.addToTopic(client, client.Topic)
	}
}

// Unregister removes a client from the hub and its pharmacy subscription,
// and closes the client's Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	h.removeFromTopic(client, client.Topic)
	delete(h.all, client)
	close(client.Send)
}

// Join subscribes a client to a pharmacy's topic, leaving any previously
// joined pharmacy first.
func (h *Hub) Join(client *Client, pharmacyID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topic := PharmacyTopic(pharmacyID)
	if client.Topic == topic {
		return
	}

	h.removeFromTopic(client, client.Topic)
	h.addToTopic(client, topic)
	client.Topic = topic
}

// Leave removes a client from its current pharmacy scope without
// disconnecting it.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromTopic(client, client.Topic)
	client.Topic = ""
}

// addToTopic and removeFromTopic require h.mu to be held.
func (h *Hub) addToTopic(client *Client, topic string) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) removeFromTopic(client *Client, topic string) {
	if topic == "" {
		return
	}
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

// ProcessMessage handles an inbound ClientMessage.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "join":
		if msg.PharmacyID > 0 {
			h.Join(client, msg.PharmacyID)
		}
	case "leave":
		h.Leave(client)
	}
}

// Broadcast sends an event to all clients subscribed to the given topic.
// Sends never block; a client whose buffer is full misses the event and
// catches up on its next re-query.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket: failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers, ok := h.clients[topic]
	if !ok {
		return
	}

	for client := range subscribers {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// Publish implements the EventPublisher interface by broadcasting the event
// to subscribers of the event's topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event.Topic, event)
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a pharmacy's topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// WebSocketHandler — Echo HTTP handler for WebSocket connections
// ---------------------------------------------------------------------------

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// WebSocketHandler handles HTTP-to-WebSocket upgrades and message routing.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler creates a new handler bound to the given Hub.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo instance.
func (wsh *WebSocketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", wsh.HandleConnect)
}

// HandleConnect upgrades an HTTP connection to WebSocket, registers the
// client with the hub, and starts read/write pumps. A `pharmacy_id` query
// parameter joins the client immediately, matching clients that connect
// straight from a pharmacy page.
func (wsh *WebSocketHandler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		hub:  wsh.hub,
		conn: &gorillaConnAdapter{ws},
	}

	wsh.hub.Register(client)

	var initial ClientMessage
	if err := echo.QueryParamsBinder(c).Int64("pharmacy_id", &initial.PharmacyID).BindError(); err == nil && initial.PharmacyID > 0 {
		wsh.hub.Join(client, initial.PharmacyID)
	}

	go wsh.writePump(client, ws)
	go wsh.readPump(client, ws)

	return nil
}

// readPump reads messages from the WebSocket connection and processes them.
func (wsh *WebSocketHandler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		wsh.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		wsh.hub.ProcessMessage(client, msg)
	}
}

// writePump writes messages from the Send channel to the WebSocket connection.
func (wsh *WebSocketHandler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
