package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Emitter is the outbound side of the transport. Delivery is fire-and-forget:
// the router never waits for a client to drain its send queue.
type Emitter interface {
	EmitTo(connID, event string, payload any)
	EmitToRoom(roomID, event string, payload any)
	BroadcastAll(event string, payload any, excludeConnID string)
}

// Router translates transport events into registry/directory mutations and
// outbound emissions. It is the sole writer of both; a single mutex
// linearizes every operation so no two joins or leaves on the same room can
// interleave their read-modify-write of the member set.
type Router struct {
	mu        sync.Mutex
	registry  *Registry
	directory *Directory
	emitter   Emitter
}

func NewRouter(registry *Registry, directory *Directory, emitter Emitter) *Router {
	return &Router{
		registry:  registry,
		directory: directory,
		emitter:   emitter,
	}
}

func (rt *Router) Connect(connID string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if err := rt.registry.Register(connID); err != nil {
		return fmt.Errorf("connect %s: %w", connID, err)
	}
	slog.Info("client connected", "conn_id", connID)
	rt.emitter.BroadcastAll(EventUserJoined, NoticePayload{
		Message: "New user joined the chat: " + connID,
	}, connID)
	return nil
}

// Disconnect tears down the connection and its room memberships. Calling it
// again for the same id is a no-op and emits nothing.
func (rt *Router) Disconnect(connID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rooms, ok := rt.registry.Unregister(connID)
	if !ok {
		return
	}
	rt.directory.RemoveConnectionFromAllRooms(connID, rooms)
	slog.Info("client disconnected", "conn_id", connID, "rooms", len(rooms))
	rt.emitter.BroadcastAll(EventUserLeft, NoticePayload{
		Message: "User left the chat: " + connID,
	}, "")
}

// JoinRoom adds the connection to the room, confirms to the joiner, and
// returns the ack for request/reply transports. An empty roomID falls back to
// DefaultRoomID; an empty username falls back to a label derived from the
// connection id.
func (rt *Router) JoinRoom(connID, roomID, username string) JoinAck {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if roomID == "" {
		roomID = DefaultRoomID
	}
	count := rt.directory.JoinRoom(roomID, connID)
	rt.registry.TrackJoin(connID, roomID)

	rt.emitter.EmitTo(connID, EventJoinRoom, JoinedPayload{
		RoomID:        roomID,
		ClientID:      connID,
		ClientInRooms: count,
	})
	slog.Info("client joined room", "conn_id", connID, "room_id", roomID, "members", count)

	if username == "" {
		username = fallbackUsername(connID)
	}
	return JoinAck{
		RoomID:        roomID,
		ClientID:      connID,
		Username:      username,
		ClientsInRoom: count,
	}
}

// LeaveRoom removes the connection from the room and confirms to the leaver.
// Leaving a room never joined is a no-op confirmation, not an error.
func (rt *Router) LeaveRoom(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.directory.LeaveRoom(roomID, connID)
	rt.registry.TrackLeave(connID, roomID)
	rt.emitter.EmitTo(connID, EventLeaveRoom, LeftPayload{RoomID: roomID})
	slog.Info("client left room", "conn_id", connID, "room_id", roomID)
}

// RoomMessage fans a message out to every member of the room, sender
// included. Non-members (and messages to rooms that do not exist) are
// rejected with an error payload to the sender only.
func (rt *Router) RoomMessage(connID, roomID, message string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.directory.IsMember(roomID, connID) {
		rt.emitter.EmitTo(connID, EventRoomMessage, RoomErrorPayload{
			Error: "You are not a member of this room!",
		})
		return
	}
	rt.directory.Touch(roomID)
	rt.emitter.EmitToRoom(roomID, EventRoomMessage, RoomMessagePayload{
		RoomID:    roomID,
		Message:   message,
		From:      connID,
		Timestamp: timestamp(),
	})
}

// DirectMessage echoes the extracted message text back to the sender. A body
// that cannot be decoded simply yields a null originalMessage.
func (rt *Router) DirectMessage(connID string, body json.RawMessage) {
	rt.emitter.EmitTo(connID, EventMessage, EchoPayload{
		OriginalMessage: ExtractMessage(body),
		Timestamp:       timestamp(),
	})
}

// Broadcast relays a formatted message to every connected client.
func (rt *Router) Broadcast(connID string, body json.RawMessage) {
	var message string
	if m := ExtractMessage(body); m != nil {
		message = *m
	}
	rt.emitter.BroadcastAll(EventBroadcast, BroadcastPayload{
		Message:    "Broadcast to all: " + message,
		Timestamp:  timestamp(),
		FromClient: connID,
	}, "")
}

// ListRooms returns a snapshot of all rooms; a pure query.
func (rt *Router) ListRooms() []RoomInfo {
	return rt.directory.ListRooms()
}

func fallbackUsername(connID string) string {
	if len(connID) > 6 {
		connID = connID[:6]
	}
	return "User-" + connID
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
