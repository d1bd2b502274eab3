package realtime

import (
	"errors"
	"sync"
)

// ErrDuplicateConnection means a connection id was registered twice. Ids are
// assigned by the transport at upgrade time, so this indicates a bug there.
var ErrDuplicateConnection = errors.New("connection already registered")

// Registry is the source of truth for which connections are live and which
// rooms each one has joined.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]struct{})}
}

func (r *Registry) Register(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; ok {
		return ErrDuplicateConnection
	}
	r.conns[connID] = make(map[string]struct{})
	return nil
}

// Unregister removes the connection and returns the rooms it belonged to so
// the caller can clean up memberships. The second return is false if the
// connection was already gone; disconnects must be idempotent.
func (r *Registry) Unregister(connID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	delete(r.conns, connID)
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	return ids, true
}

func (r *Registry) Exists(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[connID]
	return ok
}

func (r *Registry) TrackJoin(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rooms, ok := r.conns[connID]; ok {
		rooms[roomID] = struct{}{}
	}
}

func (r *Registry) TrackLeave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rooms, ok := r.conns[connID]; ok {
		delete(rooms, roomID)
	}
}

// JoinedRooms returns a snapshot of the rooms a connection belongs to.
func (r *Registry) JoinedRooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms, ok := r.conns[connID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
