package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/KanishkRAJ29/capstonebackned/internal/logging"
)

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case env := <-c.Send:
		return env
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for envelope on session %s", c.SessionID)
		return Envelope{}
	}
}

func TestEmitReachesAllConnections(t *testing.T) {
	hub := NewHub(logging.Discard())

	// Same user, two devices.
	first := NewClient("user-1", "session-1", 0)
	second := NewClient("user-1", "session-2", 0)
	hub.Join(first)
	hub.Join(second)

	hub.Emit("user-1", "ping", map[string]string{"hello": "world"})

	for _, client := range []*Client{first, second} {
		env := receive(t, client)
		if env.Event != "ping" {
			t.Fatalf("expected ping event, got %s", env.Event)
		}
		var payload map[string]string
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["hello"] != "world" {
			t.Fatalf("unexpected payload %v", payload)
		}
	}
}

func TestEmitWithoutConnectionsIsSilent(t *testing.T) {
	hub := NewHub(logging.Discard())

	// Must not panic, block, or queue anything.
	hub.Emit("nobody", "ping", nil)

	if got := hub.Connections("nobody"); got != 0 {
		t.Fatalf("expected 0 connections, got %d", got)
	}
}

func TestEmitDoesNotCrossUsers(t *testing.T) {
	hub := NewHub(logging.Discard())

	alice := NewClient("alice", "session-a", 0)
	bob := NewClient("bob", "session-b", 0)
	hub.Join(alice)
	hub.Join(bob)

	hub.Emit("alice", "ping", nil)

	if env := receive(t, alice); env.Event != "ping" {
		t.Fatalf("expected ping for alice, got %s", env.Event)
	}
	select {
	case env := <-bob.Send:
		t.Fatalf("bob received alice's event %s", env.Event)
	default:
	}
}

func TestLeaveRemovesConnection(t *testing.T) {
	hub := NewHub(logging.Discard())

	first := NewClient("user-1", "session-1", 0)
	second := NewClient("user-1", "session-2", 0)
	hub.Join(first)
	hub.Join(second)

	hub.Leave("user-1", "session-1")
	if got := hub.Connections("user-1"); got != 1 {
		t.Fatalf("expected 1 connection after leave, got %d", got)
	}

	hub.Emit("user-1", "ping", nil)
	if env := receive(t, second); env.Event != "ping" {
		t.Fatalf("expected ping for remaining connection, got %s", env.Event)
	}
	select {
	case <-first.Send:
		t.Fatalf("departed connection received an event")
	default:
	}

	hub.Leave("user-1", "session-2")
	if got := hub.Connections("user-1"); got != 0 {
		t.Fatalf("expected empty room to be dropped, got %d", got)
	}

	// Leaving an already-empty room is harmless.
	hub.Leave("user-1", "session-2")
}

func TestEmitSkipsClosedClients(t *testing.T) {
	hub := NewHub(logging.Discard())

	open := NewClient("user-1", "session-open", 0)
	closed := NewClient("user-1", "session-closed", 0)
	hub.Join(open)
	hub.Join(closed)
	closed.Close()

	hub.Emit("user-1", "ping", nil)

	if env := receive(t, open); env.Event != "ping" {
		t.Fatalf("expected ping for open connection, got %s", env.Event)
	}
	select {
	case <-closed.Send:
		t.Fatalf("closed connection received an event")
	default:
	}
}

func TestConcurrentJoinLeaveEmit(t *testing.T) {
	hub := NewHub(logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client := NewClient("user-1", "session-"+string(rune('a'+n)), 4)
			for j := 0; j < 50; j++ {
				hub.Join(client)
				hub.Emit("user-1", "ping", nil)
				hub.Leave("user-1", client.SessionID)
			}
		}(i)
	}
	wg.Wait()

	if got := hub.Connections("user-1"); got != 0 {
		t.Fatalf("expected no connections after churn, got %d", got)
	}
}
