// Package protocol defines the WebSocket messages sent to UI consumers.
package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeHello is sent by the server right after a client connects
	TypeHello MessageType = "hello"

	// TypeGestureCircle carries one recognized circle, in logical pixels
	TypeGestureCircle MessageType = "gesture-circle"

	// TypeSubscribe is sent by a client to choose which event types it receives
	TypeSubscribe MessageType = "subscribe"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"

	// TypePong answers TypePing
	TypePong MessageType = "pong"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// HelloPayload is the payload for TypeHello
type HelloPayload struct {
	Version string   `json:"version"`
	Events  []string `json:"events"`
	Enabled bool     `json:"enabled"`
}

// SubscribePayload is the payload for TypeSubscribe. An empty list
// subscribes to everything.
type SubscribePayload struct {
	Events []string `json:"events"`
}
