package notevault

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event describes a data change pushed to connected clients.
type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

const (
	EventSaved    = "saved"
	EventDeleted  = "deleted"
	EventCleared  = "cleared"
	EventMigrated = "migrated"
	EventImported = "imported"
)

const eventWriteTimeout = 5 * time.Second

// subscriber pairs a connection with its write lock. Only one goroutine may
// use a gorilla connection's write methods at a time, and Publish is called
// from concurrent HTTP handlers.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	return s.conn.WriteJSON(event)
}

// Hub fans change events out to websocket subscribers. Slow or broken
// connections are dropped rather than allowed to stall the others.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]*subscriber
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Subscribe upgrades the request to a websocket and registers it for
// events. The connection is held open until the client goes away.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &subscriber{conn: conn}
	h.mu.Unlock()
	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("event subscriber connected")

	// Drain inbound frames so pings and close messages are processed.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends an event to every subscriber. Safe to call from any number
// of goroutines; writes to each connection are serialized.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.clients))
	for _, sub := range h.clients {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(event); err != nil {
			h.log.Debug().Err(err).Msg("dropping event subscriber")
			h.drop(sub.conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.clients))
	for _, sub := range h.clients {
		subs = append(subs, sub)
	}
	h.clients = make(map[*websocket.Conn]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = sub.conn.Close()
	}
}
