package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pulsechat/backend/internal/auth"
	"github.com/pulsechat/backend/internal/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one live websocket session. Its connection id is assigned here at
// upgrade time and identifies it everywhere in the presence layer; the
// authenticated user behind it is carried only for logging.
type Client struct {
	ID     string
	UserID string

	hub    *Hub
	router *realtime.Router
	conn   *websocket.Conn
	send   chan []byte
}

func ServeWS(hub *Hub, router *realtime.Router, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ValidateToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: claims.UserID,
			hub:    hub,
			router: router,
			conn:   conn,
			send:   make(chan []byte, 256),
		}

		hub.add(client)
		if err := router.Connect(client.ID); err != nil {
			slog.Error("connect rejected", "conn_id", client.ID, "error", err)
			hub.remove(client)
			conn.Close()
			return
		}
		hub.setOnline(client.ID)
		slog.Info("websocket session opened", "conn_id", client.ID, "user_id", client.UserID)

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.router.Disconnect(c.ID)
		c.hub.setOffline(c.ID)
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.refreshPresence(c.ID)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("ws read error", "error", err, "conn_id", c.ID)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		c.dispatch(env)
	}
}

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

// dispatch routes one inbound envelope to the matching router operation.
// Faults stay contained to this client; a bad payload never affects others.
func (c *Client) dispatch(env Envelope) {
	switch env.Event {
	case realtime.EventBroadcast:
		c.router.Broadcast(c.ID, env.Payload)

	case realtime.EventMessage:
		c.router.DirectMessage(c.ID, env.Payload)
		c.ack(env.ID, "Message received!")

	case realtime.EventJoinRoom:
		var req realtime.JoinRoomRequest
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &req); err != nil {
				return
			}
		}
		ack := c.router.JoinRoom(c.ID, req.RoomID, req.Username)
		c.ack(env.ID, ack)

	case realtime.EventRoomMessage:
		var req realtime.RoomMessageRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		c.router.RoomMessage(c.ID, req.RoomID, req.Message)

	case realtime.EventListRooms:
		c.ack(env.ID, c.router.ListRooms())

	case realtime.EventLeaveRoom:
		var req realtime.LeaveRoomRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		c.router.LeaveRoom(c.ID, req.RoomID)
	}
}

func (c *Client) ack(id string, payload any) {
	if id == "" {
		return
	}
	data, err := encode(EventAck, id, payload)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}
