package notification

import (
	"context"
	"log/slog"
)

const (
	// EventPaymentReceived is emitted to a recipient when funds arrive.
	EventPaymentReceived = "payment_received"
	// EventPaymentSent confirms an outgoing payment to the sender.
	EventPaymentSent = "payment_sent"
)

// Message describes an event addressed to a single user.
type Message struct {
	UserID  string
	Event   string
	Payload any
}

// Notifier delivers events to users. Implementations decide transport;
// callers only name the recipient.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// Emitter is the delivery contract the realtime hub satisfies.
type Emitter interface {
	Emit(userID, event string, payload any)
}

// RealtimeNotifier pushes events over the realtime channel. Delivery is
// best-effort: a recipient with no open connections simply misses the event.
type RealtimeNotifier struct {
	emitter Emitter
}

// NewRealtimeNotifier constructs a hub-backed notifier.
func NewRealtimeNotifier(emitter Emitter) *RealtimeNotifier {
	return &RealtimeNotifier{emitter: emitter}
}

// Send emits the event to the addressed user.
func (n *RealtimeNotifier) Send(_ context.Context, message Message) error {
	n.emitter.Emit(message.UserID, message.Event, message.Payload)
	return nil
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Useful in tests and when no hub is wired.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "event", message.Event, "user_id", message.UserID)
	return nil
}
