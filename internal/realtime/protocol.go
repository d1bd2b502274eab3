package realtime

import (
	"encoding/json"
	"time"
)

// Event names on the wire. Inbound and outbound events share a name when the
// response answers the request (joinRoom, roomMessage, leaveRoom).
const (
	EventUserJoined  = "user-joined"
	EventUserLeft    = "user-left"
	EventBroadcast   = "broadcast"
	EventMessage     = "message"
	EventJoinRoom    = "joinRoom"
	EventRoomMessage = "roomMessage"
	EventLeaveRoom   = "leaveRoom"
	EventListRooms   = "listRooms"
)

// DefaultRoomID is used when a joinRoom request carries no room id.
const DefaultRoomID = "room1"

type NoticePayload struct {
	Message string `json:"message"`
}

type BroadcastPayload struct {
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	FromClient string `json:"fromClient"`
}

type EchoPayload struct {
	OriginalMessage *string `json:"originalMessage"`
	Timestamp       string  `json:"timestamp"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type JoinedPayload struct {
	RoomID        string `json:"roomId"`
	ClientID      string `json:"clientId"`
	ClientInRooms int    `json:"clientInRooms"`
}

type JoinAck struct {
	RoomID        string `json:"roomId"`
	ClientID      string `json:"clientId"`
	Username      string `json:"username"`
	ClientsInRoom int    `json:"clientsInRoom"`
}

type RoomMessageRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type RoomMessagePayload struct {
	RoomID    string `json:"roomId"`
	Message   string `json:"message"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
}

type RoomErrorPayload struct {
	Error string `json:"error"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

type LeftPayload struct {
	RoomID string `json:"roomId"`
}

// RoomInfo is one entry of a listRooms snapshot.
type RoomInfo struct {
	RoomID       string    `json:"roomId"`
	ClientCount  int       `json:"clientCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// ExtractMessage pulls the message field out of a direct-message body. Clients
// send either an object {"message": ...} or a JSON string holding an encoded
// object; one decode step each. Malformed bodies yield nil, never an error.
func ExtractMessage(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}

	var obj struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj.Message
}
