package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/insightlink-dev/insightlink/pkg/server"
)

// EventType names a session event.
type EventType string

const (
	EventStatus        EventType = "status"
	EventClientAdded   EventType = "client_added"
	EventClientRemoved EventType = "client_removed"
	EventFatal         EventType = "fatal"
)

// Event is sent to every subscriber as one JSON text message.
type Event struct {
	Type    EventType `json:"type"`
	Time    time.Time `json:"time"`
	Text    string    `json:"text,omitempty"`
	Addr    string    `json:"addr,omitempty"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message,omitempty"`
}

const (
	subscriberBuffer = 64
	eventWriteWait   = 5 * time.Second
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session events out to WebSocket subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses events.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "admin-events"),
		now:    time.Now,
	}
}

// Callbacks returns session callbacks that publish to the hub.
func (h *Hub) Callbacks() server.Callbacks {
	return server.Callbacks{
		OnStatusChanged: func(text string) {
			h.Publish(Event{Type: EventStatus, Text: text})
		},
		OnClientAdded: func(addr string) {
			h.Publish(Event{Type: EventClientAdded, Addr: addr})
		},
		OnClientRemoved: func(addr string) {
			h.Publish(Event{Type: EventClientRemoved, Addr: addr})
		},
		OnFatalError: func(title, message string) {
			h.Publish(Event{Type: EventFatal, Title: title, Message: message})
		},
	}
}

// ServeHTTP upgrades the request and streams events until the peer goes
// away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("subscriber joined", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for data := range sub.send {
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(sub)
	<-writerDone
	conn.Close()
	h.logger.Debug("subscriber left", "remote", r.RemoteAddr)
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// Publish stamps ev and queues it for every subscriber.
func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = h.now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("subscriber too slow, event dropped", "type", ev.Type)
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs))
	for sub := range h.subs {
		conns = append(conns, sub.conn)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}
