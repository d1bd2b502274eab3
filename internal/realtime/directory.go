package realtime

import (
	"sort"
	"sync"
	"time"
)

type roomState struct {
	members      map[string]struct{}
	createdAt    time.Time
	lastActivity time.Time
}

// Directory owns the room -> members mapping and room metadata. Rooms are
// created lazily on first join and deleted the moment their member set
// becomes empty; an empty room never survives the operation that emptied it.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*roomState)}
}

// JoinRoom adds the connection to the room, creating the room if needed, and
// returns the resulting member count. Re-joining is a no-op.
func (d *Directory) JoinRoom(roomID, connID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().UTC()
	room, ok := d.rooms[roomID]
	if !ok {
		room = &roomState{
			members:   make(map[string]struct{}),
			createdAt: now,
		}
		d.rooms[roomID] = room
	}
	room.members[connID] = struct{}{}
	room.lastActivity = now
	return len(room.members)
}

// LeaveRoom removes the connection from the room if present and reports
// whether the room still exists afterwards.
func (d *Directory) LeaveRoom(roomID, connID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	delete(room.members, connID)
	if len(room.members) == 0 {
		delete(d.rooms, roomID)
		return false
	}
	room.lastActivity = time.Now().UTC()
	return true
}

func (d *Directory) IsMember(roomID, connID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = room.members[connID]
	return ok
}

// Touch bumps the room's last-activity timestamp.
func (d *Directory) Touch(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok := d.rooms[roomID]; ok {
		room.lastActivity = time.Now().UTC()
	}
}

// Members returns a snapshot of the room's member connection ids.
func (d *Directory) Members(roomID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(room.members))
	for id := range room.members {
		ids = append(ids, id)
	}
	return ids
}

// ListRooms returns a point-in-time snapshot of every room, sorted by id for
// stable output. Later mutations are not reflected in the returned slice.
func (d *Directory) ListRooms() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	infos := make([]RoomInfo, 0, len(d.rooms))
	for id, room := range d.rooms {
		infos = append(infos, RoomInfo{
			RoomID:       id,
			ClientCount:  len(room.members),
			CreatedAt:    room.createdAt,
			LastActivity: room.lastActivity,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].RoomID < infos[j].RoomID })
	return infos
}

// RemoveConnectionFromAllRooms applies LeaveRoom for every room in roomIDs,
// typically the snapshot returned by Registry.Unregister on disconnect.
func (d *Directory) RemoveConnectionFromAllRooms(connID string, roomIDs []string) {
	for _, roomID := range roomIDs {
		d.LeaveRoom(roomID, connID)
	}
}
