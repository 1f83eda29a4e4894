// Package transport defines the boundary between the chat session and the
// real-time channel that carries its events.
package transport

import "encoding/json"

// Lifecycle events synthesized by transport implementations. They are
// delivered through the same handler as server-sent events.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// Handler receives every event delivered by a transport, lifecycle events
// included. Implementations invoke it from a single goroutine, so calls
// never overlap. Data is nil for lifecycle events.
type Handler func(event string, data json.RawMessage)

// Transport is a bidirectional event channel. It is exclusively owned by
// whoever dialed it; Close releases the underlying connection.
type Transport interface {
	Emit(event string, payload any) error
	Close() error
}

// Dialer opens a transport against the given URL and wires incoming events
// to h. A successful dial is followed by an EventConnect delivery.
type Dialer func(url string, h Handler) (Transport, error)
