package realtime

import "sync"

const defaultSendQueueSize = 64

// Client represents one authenticated websocket connection.
//
// Send is intentionally never closed by the server so concurrent emitters
// can fan out without risking a send on a closed channel; done signals the
// connection goroutines to stop instead. Close is idempotent.
type Client struct {
	SessionID string
	UserID    string
	Send      chan Envelope

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with a bounded send queue.
func NewClient(userID, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Send:      make(chan Envelope, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// Done returns a channel closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close signals the client goroutines to stop. It does not close Send.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
