/*
Package client is the Go client for the InstaText server.

This file implements the websocket client for the push channel.
*/
package client

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"instatext/internal/app/hub"
	"instatext/internal/pkg/logx"
)

// Socket is an open push-channel connection. It is ephemeral: when it drops,
// the caller must dial a fresh one and reload history from the store, since
// events relayed during the gap are not replayed.
type Socket struct {
	conn *websocket.Conn

	// clientID is the server-assigned connection token from the handshake.
	clientID string

	logger zerolog.Logger
}

// DialSocket connects to the push channel at the given websocket URL
// (e.g. "ws://localhost:4000/ws") and consumes the connection
// acknowledgement.
func DialSocket(ctx context.Context, rawURL string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}

	var ack hub.Event
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read connection acknowledgement: %w", err)
	}

	if ack.Kind != hub.KindConnection || ack.ClientID == "" {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake event kind %q", ack.Kind)
	}

	return &Socket{
		conn:     conn,
		clientID: ack.ClientID,
		logger: logx.Logger().With().
			Str("component", "socket_client").
			Str("client_id", ack.ClientID).
			Logger(),
	}, nil
}

// ClientID returns the server-assigned connection identifier.
func (s *Socket) ClientID() string {
	return s.clientID
}

// ReadEvent blocks until the next event arrives.
func (s *Socket) ReadEvent() (hub.Event, error) {
	var event hub.Event
	if err := s.conn.ReadJSON(&event); err != nil {
		return hub.Event{}, err
	}
	return event, nil
}

// SendChat pushes a chat event to the server.
func (s *Socket) SendChat(from, to int64, content string) error {
	return s.conn.WriteJSON(hub.Event{
		Kind:    hub.KindChat,
		From:    from,
		To:      to,
		Content: content,
	})
}

// SendPing sends a liveness probe; the server answers with a pong on this
// connection only.
func (s *Socket) SendPing() error {
	return s.conn.WriteJSON(hub.Event{Kind: hub.KindPing})
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}
