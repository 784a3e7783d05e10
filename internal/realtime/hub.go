package realtime

import (
	"log/slog"
	"sync"
)

// Hub maps user identifiers to rooms of open connections. It is the single
// shared structure between the websocket gateway and server-side emitters:
// any collaborator can push an event to a user without knowing how many
// connections, if any, currently represent them.
type Hub struct {
	log *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*room
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:   log,
		rooms: make(map[string]*room),
	}
}

// Join binds an authenticated connection to its user's room. The hub lock is
// held across the membership write so a concurrent Leave cannot drop a room
// a connection is entering.
func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	r, ok := h.rooms[client.UserID]
	if !ok {
		r = newRoom()
		h.rooms[client.UserID] = r
	}
	r.join(client)
	h.mu.Unlock()

	h.log.Info("realtime connected", "user_id", client.UserID, "session_id", client.SessionID)
}

// Leave removes a connection and drops the room once it is empty. Membership
// has no life beyond currently open connections.
func (h *Hub) Leave(userID, sessionID string) {
	h.mu.Lock()
	r, ok := h.rooms[userID]
	if ok {
		r.leave(sessionID)
		if r.size() == 0 {
			delete(h.rooms, userID)
		}
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	h.log.Info("realtime disconnected", "user_id", userID, "session_id", sessionID)
}

// Emit fans the event out to every open connection of the user. A user with
// no open connections is a silent no-op: best-effort, at-most-once,
// in-session delivery only.
func (h *Hub) Emit(userID, event string, payload any) {
	h.mu.RLock()
	r, ok := h.rooms[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.broadcast(NewEnvelope(event, payload))
}

// Connections reports how many connections a user currently has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	r, ok := h.rooms[userID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	return r.size()
}
