package realtime

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	authTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// TokenVerifier validates a bearer token and returns the user identifier it
// names. The gateway consumes the same token format the login endpoint
// issues but does not own issuance.
type TokenVerifier func(token string) (string, error)

// Gateway is the websocket entrypoint. It turns an anonymous connection into
// an authenticated member of its user's room, or rejects it with a single
// error event.
type Gateway struct {
	log    *slog.Logger
	hub    *Hub
	verify TokenVerifier

	sendQueueSize int
}

// NewGateway constructs a gateway bound to a hub and token verifier.
func NewGateway(log *slog.Logger, hub *Hub, verify TokenVerifier) *Gateway {
	return &Gateway{log: log, hub: hub, verify: verify, sendQueueSize: defaultSendQueueSize}
}

// Upgrade gates the HTTP->websocket upgrade. Mounted as middleware ahead of
// the websocket handler.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the fiber handler running the connection lifecycle.
func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(g.serve)
}

func (g *Gateway) serve(conn *websocket.Conn) {
	defer conn.Close() // nolint:errcheck

	// The first frame must carry the bearer token. Bounding the read keeps
	// half-open handshakes from pinning resources.
	_ = conn.SetReadDeadline(time.Now().Add(authTimeout))

	var hs handshake
	if err := conn.ReadJSON(&hs); err != nil || hs.Token == "" {
		g.reject(conn, "authentication error")
		return
	}

	userID, err := g.verify(hs.Token)
	if err != nil {
		g.reject(conn, "authentication error")
		return
	}

	_ = conn.SetReadDeadline(time.Time{})

	client := NewClient(userID, uuid.NewString(), g.sendQueueSize)
	g.hub.Join(client)
	defer g.hub.Leave(userID, client.SessionID)

	if err := g.write(conn, NewEnvelope("connected", fiber.Map{"userId": userID})); err != nil {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-client.Done():
				return
			case env := <-client.Send:
				if err := g.write(conn, env); err != nil {
					g.log.Info("realtime write failed", "user_id", userID, "session_id", client.SessionID, "error", err)
					client.Close()
					return
				}
			}
		}
	}()

	// Server-push channel: inbound frames are drained only to detect
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	client.Close()
	<-writerDone
}

// reject reports an authentication failure as a single event and closes the
// connection. The failure is terminal for the connection and never escalates
// past this handler.
func (g *Gateway) reject(conn *websocket.Conn, reason string) {
	g.log.Info("realtime rejected", "reason", reason, "remote", conn.RemoteAddr().String())
	_ = g.write(conn, NewEnvelope("error", fiber.Map{"message": reason}))
}

func (g *Gateway) write(conn *websocket.Conn, env Envelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(env)
}
