/*
Package hub contains the core logic for the live push channel: the connection
registry, per-connection pumps, and message relay.

This file defines the wire-level Event structure shared by both directions of
the websocket channel.
*/
package hub

// Kind identifies the type of a push-channel event.
type Kind string

const (
	// KindConnection is the acknowledgement sent once per connection,
	// carrying the ephemeral client identifier.
	KindConnection Kind = "connection"

	// KindChat is a chat message, both inbound and relayed.
	KindChat Kind = "chat"

	// KindPing is a client liveness probe.
	KindPing Kind = "ping"

	// KindPong is the reply to a ping, sent only to the probing connection.
	KindPong Kind = "pong"

	// KindError reports an unusable payload back to the offending connection.
	KindError Kind = "error"
)

// Event is the single wire shape used on the push channel. Fields are
// populated according to Kind; unused fields are omitted from the JSON.
type Event struct {
	Kind Kind `json:"kind"`

	// ClientID carries the connection identifier on connection events.
	ClientID string `json:"clientId,omitempty"`

	// Message carries human-readable text on connection and error events.
	Message string `json:"message,omitempty"`

	// From and To are user ids on chat events. From is caller-supplied and
	// not bound to the sending connection's identity.
	From int64 `json:"from,omitempty"`
	To   int64 `json:"to,omitempty"`

	// Content is the chat message body.
	Content string `json:"content,omitempty"`

	// EmittedAt is the server wall-clock timestamp (RFC 3339), stamped on
	// chat relays and pong replies.
	EmittedAt string `json:"emittedAt,omitempty"`
}
