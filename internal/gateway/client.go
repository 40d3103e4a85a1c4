// Package gateway talks to the external WhatsApp gateway. The gateway is
// an opaque remote service: one send-message operation plus a polled
// connection state per named instance.
package gateway

import "context"

// InstanceState is the engine's own vocabulary for instance connectivity.
// The gateway's raw state strings are translated once, at the point of
// ingestion, by mapInstanceState.
type InstanceState string

const (
	InstanceConnected    InstanceState = "connected"
	InstanceConnecting   InstanceState = "connecting"
	InstanceDisconnected InstanceState = "disconnected"
)

// SendResult carries the gateway's identifier for an accepted message,
// used later to correlate delivery receipts.
type SendResult struct {
	MessageID string
}

// Client is the delivery gateway consumed by the dispatcher.
type Client interface {
	// SendMessage attempts one send through the named instance. The
	// phone number must already be normalized (digits only, country code
	// prefixed).
	SendMessage(ctx context.Context, instance, phone, content string) (*SendResult, error)

	// InstanceStatus polls the connectivity of a gateway instance.
	InstanceStatus(ctx context.Context, instance string) (InstanceState, error)
}

// mapInstanceState translates the gateway's state vocabulary into the
// internal enum. Unknown states are treated as disconnected: the
// dispatcher would rather pause than send into the void.
func mapInstanceState(raw string) InstanceState {
	switch raw {
	case "open", "connected":
		return InstanceConnected
	case "connecting":
		return InstanceConnecting
	default:
		return InstanceDisconnected
	}
}
