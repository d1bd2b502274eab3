package realtime

import (
	"testing"
)

func TestDirectoryJoinCreatesRoomLazily(t *testing.T) {
	d := NewDirectory()

	if rooms := d.ListRooms(); len(rooms) != 0 {
		t.Fatalf("ListRooms() on empty directory = %v, want none", rooms)
	}

	count := d.JoinRoom("team", "c1")
	if count != 1 {
		t.Errorf("JoinRoom() count = %d, want 1", count)
	}

	rooms := d.ListRooms()
	if len(rooms) != 1 {
		t.Fatalf("ListRooms() = %d rooms, want 1", len(rooms))
	}
	if rooms[0].RoomID != "team" {
		t.Errorf("RoomID = %q, want %q", rooms[0].RoomID, "team")
	}
	if rooms[0].ClientCount != 1 {
		t.Errorf("ClientCount = %d, want 1", rooms[0].ClientCount)
	}
	if rooms[0].CreatedAt.IsZero() || rooms[0].LastActivity.IsZero() {
		t.Error("room timestamps should be set on creation")
	}
}

func TestDirectoryJoinIsSetInsert(t *testing.T) {
	d := NewDirectory()

	d.JoinRoom("team", "c1")
	count := d.JoinRoom("team", "c1")
	if count != 1 {
		t.Errorf("re-join count = %d, want 1 (set semantics)", count)
	}
}

func TestDirectoryLeaveDeletesEmptyRoom(t *testing.T) {
	d := NewDirectory()

	d.JoinRoom("team", "c1")
	d.JoinRoom("team", "c2")

	if alive := d.LeaveRoom("team", "c1"); !alive {
		t.Error("LeaveRoom() reported room gone with one member remaining")
	}
	if alive := d.LeaveRoom("team", "c2"); alive {
		t.Error("LeaveRoom() reported room alive after last member left")
	}
	if rooms := d.ListRooms(); len(rooms) != 0 {
		t.Errorf("ListRooms() after emptying = %v, want none", rooms)
	}
}

func TestDirectoryLeaveUnknownIsNoOp(t *testing.T) {
	d := NewDirectory()

	if alive := d.LeaveRoom("nowhere", "c1"); alive {
		t.Error("LeaveRoom() on missing room reported room alive")
	}

	d.JoinRoom("team", "c1")
	if alive := d.LeaveRoom("team", "stranger"); !alive {
		t.Error("LeaveRoom() by non-member deleted the room")
	}
	if !d.IsMember("team", "c1") {
		t.Error("non-member leave removed an actual member")
	}
}

func TestDirectoryIsMember(t *testing.T) {
	d := NewDirectory()
	d.JoinRoom("team", "c1")

	tests := []struct {
		name   string
		roomID string
		connID string
		want   bool
	}{
		{"member", "team", "c1", true},
		{"non-member", "team", "c2", false},
		{"missing room", "void", "c1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsMember(tt.roomID, tt.connID); got != tt.want {
				t.Errorf("IsMember(%q, %q) = %v, want %v", tt.roomID, tt.connID, got, tt.want)
			}
		})
	}
}

func TestDirectoryReplaySetSemantics(t *testing.T) {
	type op struct {
		join   bool
		connID string
	}
	ops := []op{
		{true, "a"}, {true, "b"}, {true, "a"}, {false, "b"},
		{true, "c"}, {false, "a"}, {true, "b"}, {true, "a"},
	}

	d := NewDirectory()
	want := make(map[string]struct{})
	for _, o := range ops {
		if o.join {
			d.JoinRoom("replay", o.connID)
			want[o.connID] = struct{}{}
		} else {
			d.LeaveRoom("replay", o.connID)
			delete(want, o.connID)
		}
	}

	got := d.Members("replay")
	if len(got) != len(want) {
		t.Fatalf("Members() = %v, want the set %v", got, want)
	}
	for _, id := range got {
		if _, ok := want[id]; !ok {
			t.Errorf("Members() contains %q, not in expected set", id)
		}
	}
}

func TestDirectoryListRoomsSnapshot(t *testing.T) {
	d := NewDirectory()
	d.JoinRoom("team", "c1")

	snapshot := d.ListRooms()
	d.JoinRoom("team", "c2")
	d.JoinRoom("other", "c3")

	if len(snapshot) != 1 {
		t.Fatalf("snapshot grew after later mutations: %v", snapshot)
	}
	if snapshot[0].ClientCount != 1 {
		t.Errorf("snapshot ClientCount = %d, want the count at call time (1)", snapshot[0].ClientCount)
	}
}

func TestDirectoryRemoveConnectionFromAllRooms(t *testing.T) {
	d := NewDirectory()
	d.JoinRoom("a", "c1")
	d.JoinRoom("b", "c1")
	d.JoinRoom("b", "c2")

	d.RemoveConnectionFromAllRooms("c1", []string{"a", "b"})

	rooms := d.ListRooms()
	if len(rooms) != 1 {
		t.Fatalf("ListRooms() = %v, want only room b", rooms)
	}
	if rooms[0].RoomID != "b" || rooms[0].ClientCount != 1 {
		t.Errorf("room b = %+v, want 1 remaining member", rooms[0])
	}
}
