package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/models"
)

// StatusHub pushes instance and client status transitions to connected
// WebSocket subscribers. Subscribers are read-mostly; a slow consumer is
// dropped rather than allowed to block the broadcast path.
type StatusHub struct {
	// Registered subscribers
	subscribers map[*subscriber]bool

	// Register requests from subscribers
	register chan *subscriber

	// Unregister requests from subscribers
	unregister chan *subscriber

	// Outbound messages to fan out
	broadcast chan []byte

	// Stop channel
	stopChan chan struct{}

	logger *logrus.Logger
	mu     sync.RWMutex
}

// subscriber represents one WebSocket connection
type subscriber struct {
	// The WebSocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Hub reference
	hub *StatusHub

	// Last ping time
	lastPing time.Time
}

// StatusMessage is the envelope sent over the wire
type StatusMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	// WebSocket message types
	MessageTypeStatusChange = "status_change"
	MessageTypeSystemAlert  = "system_alert"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// NewStatusHub creates a new status hub
func NewStatusHub(logger *logrus.Logger) *StatusHub {
	return &StatusHub{
		subscribers: make(map[*subscriber]bool),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan []byte, 256),
		stopChan:    make(chan struct{}),
		logger:      logger,
	}
}

// Start runs the status hub
func (h *StatusHub) Start() {
	h.logger.Info("Starting status hub")

	// Start cleanup routine
	go h.cleanupRoutine()

	for {
		select {
		case sub := <-h.register:
			h.registerSubscriber(sub)

		case sub := <-h.unregister:
			h.unregisterSubscriber(sub)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-h.stopChan:
			h.logger.Info("Status hub stopping")
			return
		}
	}
}

// Stop stops the status hub
func (h *StatusHub) Stop() {
	close(h.stopChan)

	// Close all subscriber connections
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		close(sub.send)
		sub.conn.Close()
	}
}

// HandleWebSocket upgrades an HTTP request into a status subscription
func (h *StatusHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      h,
		lastPing: time.Now(),
	}

	sub.hub.register <- sub

	go sub.writePump()
	go sub.readPump()
}

// BroadcastStatusChange pushes an online/offline transition to every
// subscriber. The health monitor calls this only when a status actually
// flips, so subscribers see edges, not every probe.
func (h *StatusHub) BroadcastStatusChange(kind string, id int64, name string, status *models.Status) {
	data := map[string]interface{}{
		"kind":   kind,
		"id":     id,
		"name":   name,
		"status": status,
	}

	h.broadcastToAll(&StatusMessage{
		Type:      MessageTypeStatusChange,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// BroadcastSystemAlert broadcasts system-wide alerts
func (h *StatusHub) BroadcastSystemAlert(level string, message string) {
	data := map[string]interface{}{
		"level":   level, // "info", "warning", "error"
		"message": message,
	}

	h.broadcastToAll(&StatusMessage{
		Type:      MessageTypeSystemAlert,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// registerSubscriber registers a new subscriber
func (h *StatusHub) registerSubscriber(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[sub] = true
	h.logger.Infof("Status subscriber connected (%d total)", len(h.subscribers))

	// Send welcome message
	welcomeMsg := &StatusMessage{
		Type:      "connected",
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(welcomeMsg); err == nil {
		select {
		case sub.send <- data:
		default:
			close(sub.send)
			delete(h.subscribers, sub)
		}
	}
}

// unregisterSubscriber unregisters a subscriber
func (h *StatusHub) unregisterSubscriber(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
		h.logger.Infof("Status subscriber disconnected (%d total)", len(h.subscribers))
	}
}

// broadcastMessage fans a raw message out to all subscribers
func (h *StatusHub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- message:
		default:
			close(sub.send)
			delete(h.subscribers, sub)
		}
	}
}

// broadcastToAll marshals and queues a message for all subscribers
func (h *StatusHub) broadcastToAll(message *StatusMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Errorf("Failed to marshal status message: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast channel full, dropping message")
	}
}

// cleanupRoutine periodically cleans up inactive connections
func (h *StatusHub) cleanupRoutine() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanupInactiveSubscribers()
		case <-h.stopChan:
			return
		}
	}
}

// cleanupInactiveSubscribers removes subscribers that haven't pinged recently
func (h *StatusHub) cleanupInactiveSubscribers() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-5 * time.Minute)

	for sub := range h.subscribers {
		if sub.lastPing.Before(cutoff) {
			h.logger.Info("Cleaning up inactive status subscriber")
			close(sub.send)
			sub.conn.Close()
			delete(h.subscribers, sub)
		}
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *StatusHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// readPump pumps messages from the WebSocket connection to the hub
func (s *subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait)) // Ignore deadline errors
	s.conn.SetPongHandler(func(string) error {
		s.lastPing = time.Now()
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait)) // Ignore deadline errors
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		s.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait)) // Ignore deadline errors
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{}) // Ignore close message errors
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message) // Ignore write errors in websocket

			// Add queued messages to the current WebSocket message
			n := len(s.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'}) // Ignore write errors
				_, _ = w.Write(<-s.send)     // Ignore write errors
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait)) // Ignore deadline errors
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages from the subscriber
func (s *subscriber) handleMessage(message []byte) {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		s.hub.logger.Warnf("Invalid WebSocket message: %v", err)
		return
	}

	msgType, ok := msg["type"].(string)
	if !ok {
		return
	}

	if msgType == "ping" {
		s.lastPing = time.Now()
	}
}
