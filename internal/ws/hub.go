package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	redisc "github.com/pulsechat/backend/internal/redis"
)

// Envelope is the wire frame for every websocket message. Requests may carry
// an id; replies to those requests come back as an "ack" event with the same
// id, mirroring the request/acknowledgement pattern of the event surface.
type Envelope struct {
	Event   string          `json:"event"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const EventAck = "ack"

// RoomResolver answers which connections belong to a room. The room
// directory satisfies it; the hub never owns membership state of its own.
type RoomResolver interface {
	Members(roomID string) []string
}

// Hub tracks live clients by connection id and delivers outbound events. It
// implements the router's Emitter. Delivery is fire-and-forget: a client
// whose send queue is full has the frame dropped.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	resolver RoomResolver
	redis    *redis.Client
}

func NewHub(resolver RoomResolver, redisClient *redis.Client) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		resolver: resolver,
		redis:    redisClient,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if existing, ok := h.clients[c.ID]; ok && existing == c {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) EmitTo(connID, event string, payload any) {
	data, err := encode(event, "", payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.enqueue(data)
	}
}

func (h *Hub) EmitToRoom(roomID, event string, payload any) {
	data, err := encode(event, "", payload)
	if err != nil {
		return
	}
	members := h.resolver.Members(roomID)
	h.mu.RLock()
	for _, id := range members {
		if c, ok := h.clients[id]; ok {
			c.enqueue(data)
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) BroadcastAll(event string, payload any, excludeConnID string) {
	data, err := encode(event, "", payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	for id, c := range h.clients {
		if id == excludeConnID {
			continue
		}
		c.enqueue(data)
	}
	h.mu.RUnlock()
}

// Shutdown closes every client's send channel so the write pumps terminate.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) setOnline(connID string) {
	if h.redis == nil {
		return
	}
	if err := redisc.SetOnline(h.redis, connID); err != nil {
		slog.Warn("presence mirror set online failed", "conn_id", connID, "error", err)
	}
}

func (h *Hub) setOffline(connID string) {
	if h.redis == nil {
		return
	}
	if err := redisc.SetOffline(h.redis, connID); err != nil {
		slog.Warn("presence mirror set offline failed", "conn_id", connID, "error", err)
	}
}

func (h *Hub) refreshPresence(connID string) {
	if h.redis == nil {
		return
	}
	if err := redisc.RefreshPresence(h.redis, connID); err != nil {
		slog.Debug("presence refresh failed", "conn_id", connID, "error", err)
	}
}

func encode(event, id string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Envelope{Event: event, ID: id, Payload: raw})
}
