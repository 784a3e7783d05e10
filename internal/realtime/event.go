package realtime

import "encoding/json"

// Envelope is the wire frame written to clients.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope. A payload that cannot be
// marshaled yields an envelope with no payload rather than an error; event
// delivery is best-effort by contract.
func NewEnvelope(event string, payload any) Envelope {
	env := Envelope{Event: event}
	if payload == nil {
		return env
	}
	if raw, err := json.Marshal(payload); err == nil {
		env.Payload = raw
	}
	return env
}

// handshake is the first frame a connecting client must send.
type handshake struct {
	Token string `json:"token"`
}
