package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/pipeline"
)

// EventMessage is the wire form of a pipeline progress notification.
type EventMessage struct {
	RequestID string         `json:"request_id"`
	Stage     pipeline.Stage `json:"stage,omitempty"`
	Status    string         `json:"status"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	hub       *EventHub
	conn      *websocket.Conn
	send      chan []byte
	logger    *logrus.Logger
	requestID string // If client subscribes to a specific request
}

// EventHub manages WebSocket clients and broadcasts pipeline events. It
// implements pipeline.EventSink.
type EventHub struct {
	logger             *logrus.Logger
	clients            map[*Client]bool
	requestSubscribers map[string]map[*Client]bool
	broadcast          chan *EventMessage
	register           chan *Client
	unregister         chan *Client
	mutex              sync.RWMutex
}

// WebSocketUpgrader configures the WebSocket connection
var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all connections
		return true
	},
}

// NewEventHub creates a new pipeline event hub
func NewEventHub(logger *logrus.Logger) *EventHub {
	return &EventHub{
		logger:             logger,
		clients:            make(map[*Client]bool),
		requestSubscribers: make(map[string]map[*Client]bool),
		broadcast:          make(chan *EventMessage, 64),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
	}
}

// Run starts the event hub
func (h *EventHub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket event hub")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Shutting down WebSocket event hub")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			if client.requestID != "" {
				if _, exists := h.requestSubscribers[client.requestID]; !exists {
					h.requestSubscribers[client.requestID] = make(map[*Client]bool)
				}
				h.requestSubscribers[client.requestID][client] = true
				h.logger.WithField("request_id", client.requestID).Info("Client subscribed to specific request")
			}
			h.mutex.Unlock()
			h.logger.Info("Client connected to WebSocket")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				if client.requestID != "" {
					if subscribers, exists := h.requestSubscribers[client.requestID]; exists {
						delete(subscribers, client)
						if len(subscribers) == 0 {
							delete(h.requestSubscribers, client.requestID)
						}
					}
				}
				h.logger.Info("Client disconnected from WebSocket")
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal pipeline event")
				continue
			}

			h.mutex.RLock()

			if subscribers, exists := h.requestSubscribers[message.RequestID]; exists && len(subscribers) > 0 {
				for client := range subscribers {
					select {
					case client.send <- data:
					default:
						close(client.send)
						delete(h.clients, client)
						delete(subscribers, client)
					}
				}
			}

			for client := range h.clients {
				if client.requestID != "" {
					continue
				}
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}

			h.mutex.RUnlock()
		}
	}
}

// Publish implements pipeline.EventSink. Events are dropped rather than
// blocking a running pipeline.
func (h *EventHub) Publish(event pipeline.Event) {
	message := &EventMessage{
		RequestID: event.RequestID,
		Stage:     event.Stage,
		Status:    event.Status,
		Detail:    event.Detail,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Debug("Dropping pipeline event, broadcast channel full")
	}
}

// NotifyCompleted announces a finished analysis with its outcome.
func (h *EventHub) NotifyCompleted(requestID, fraudLikelihood string) {
	message := &EventMessage{
		RequestID: requestID,
		Status:    "done",
		Detail:    fraudLikelihood,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- message:
	default:
	}
}

// ServeWs handles WebSocket requests from clients
func (h *EventHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade connection to WebSocket")
		return
	}

	// Optional per-request subscription
	requestID := r.URL.Query().Get("request_id")

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		logger:    h.logger,
		requestID: requestID,
	}

	client.hub.register <- client

	go client.writePump()
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(60 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// IsRunning reports whether the hub has been created
func (h *EventHub) IsRunning() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.clients != nil
}
