package realtime

import "sync"

// room holds every open connection for a single user.
//
// Concurrency guarantees:
// - join/leave are safe under concurrent broadcast.
// - broadcast never blocks (drops under backpressure).
// - broadcast is panic-safe because Client.Send is never closed by the server.
type room struct {
	mu      sync.RWMutex
	members map[string]*Client
}

func newRoom() *room {
	return &room{members: make(map[string]*Client)}
}

func (r *room) join(client *Client) {
	r.mu.Lock()
	r.members[client.SessionID] = client
	r.mu.Unlock()
}

// leave removes the connection from membership and then signals its
// goroutines to stop. Removal happens first so a concurrent broadcast never
// targets a client mid-teardown.
func (r *room) leave(sessionID string) {
	r.mu.Lock()
	cl := r.members[sessionID]
	delete(r.members, sessionID)
	r.mu.Unlock()

	if cl != nil {
		cl.Close()
	}
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// broadcast fans an envelope out to all members. Members whose queue is full
// or that are shutting down are skipped.
func (r *room) broadcast(env Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members {
		select {
		case <-m.Done():
			continue
		default:
		}

		select {
		case m.Send <- env:
		default:
			// Drop rather than block the fanout.
		}
	}
}
