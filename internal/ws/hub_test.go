package ws

import (
	"encoding/json"
	"testing"
)

type staticResolver map[string][]string

func (r staticResolver) Members(roomID string) []string { return r[roomID] }

func testClient(id string) *Client {
	return &Client{ID: id, send: make(chan []byte, 8)}
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("failed to decode envelope: %v", err)
		}
		return env
	default:
		t.Fatal("no frame queued for client " + c.ID)
		return Envelope{}
	}
}

func TestHubEmitTo(t *testing.T) {
	hub := NewHub(staticResolver{}, nil)
	a := testClient("a")
	b := testClient("b")
	hub.add(a)
	hub.add(b)

	hub.EmitTo("a", "message", map[string]string{"hello": "world"})

	env := receive(t, a)
	if env.Event != "message" {
		t.Errorf("event = %q, want message", env.Event)
	}
	if len(b.send) != 0 {
		t.Error("EmitTo leaked the frame to another client")
	}
}

func TestHubEmitToRoomUsesResolver(t *testing.T) {
	hub := NewHub(staticResolver{"team": {"a", "b"}}, nil)
	a := testClient("a")
	b := testClient("b")
	c := testClient("c")
	hub.add(a)
	hub.add(b)
	hub.add(c)

	hub.EmitToRoom("team", "roomMessage", map[string]string{"message": "hi"})

	receive(t, a)
	receive(t, b)
	if len(c.send) != 0 {
		t.Error("EmitToRoom delivered to a non-member")
	}
}

func TestHubBroadcastAllExcludes(t *testing.T) {
	hub := NewHub(staticResolver{}, nil)
	a := testClient("a")
	b := testClient("b")
	hub.add(a)
	hub.add(b)

	hub.BroadcastAll("user-joined", map[string]string{"message": "hello"}, "a")

	if len(a.send) != 0 {
		t.Error("BroadcastAll delivered to the excluded client")
	}
	receive(t, b)
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(staticResolver{}, nil)
	a := &Client{ID: "a", send: make(chan []byte)} // unbuffered, never drained
	hub.add(a)

	// Must not block.
	hub.EmitTo("a", "message", map[string]string{"hello": "world"})
}

func TestHubRemoveIsIdempotentPerClient(t *testing.T) {
	hub := NewHub(staticResolver{}, nil)
	a := testClient("a")
	hub.add(a)
	hub.remove(a)
	hub.remove(a) // second remove must not double-close

	replacement := testClient("a")
	hub.add(replacement)
	hub.remove(a) // stale pointer, same id: must not touch the replacement

	hub.EmitTo("a", "message", "still here")
	receive(t, replacement)
}
