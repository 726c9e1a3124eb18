/*
Package hub contains the core logic for the live push channel: the connection
registry, per-connection pumps, and message relay.

This file defines the Client struct, one per open websocket connection. It
owns the read and write loops and the inbound event dispatch.
*/
package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"instatext/internal/pkg/errs"
	"instatext/internal/pkg/logx"
	"instatext/internal/pkg/randx"
)

const (
	// timeout for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a transport-level pong from the peer.
	pongWait = 60 * time.Second

	// frequency of transport-level pings.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound event.
	maxMessageSize = 8192
)

// Client represents one open websocket connection registered with the Hub.
// It is identified by a process-local random token that lives only as long as
// the transport session.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// id is the ephemeral connection token assigned on registration.
	id string

	// send queues outbound payloads for WritePump.
	send chan []byte

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection, minting its
// ephemeral identifier.
func NewClient(h *Hub, wsConn *websocket.Conn) (*Client, error) {
	token, err := randx.ConnectionToken()
	if err != nil {
		return nil, err
	}

	clientLogger := logx.Logger().With().
		Str("component", "hub").
		Str("client_id", token).
		Logger()

	return &Client{
		hub:    h,
		conn:   wsConn,
		id:     token,
		send:   make(chan []byte, 256),
		logger: clientLogger,
	}, nil
}

// ID returns the connection's ephemeral identifier.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads inbound events from the websocket until the connection
// closes, dispatching each by kind. It unregisters the client on exit.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundEvent(messageBytes)
	}
}

// cleanupOnDisconnect removes the client from the hub's live set and closes
// the underlying connection. No departure notification is sent to peers.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	select {
	case c.hub.unregister <- c:
	default:
		c.logger.Warn().Msg("Hub unregister channel blocked. Connection cleanup still proceeding.")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// processInboundEvent parses one raw payload and dispatches it by kind.
// An unparseable payload yields an error event to this connection only; the
// connection stays open. Unknown kinds are logged and dropped.
func (c *Client) processInboundEvent(messageBytes []byte) {
	var event Event

	if err := json.Unmarshal(messageBytes, &event); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrMalformedEvent))
		return
	}

	switch event.Kind {
	case KindChat:
		c.handleChat(event)

	case KindPing:
		c.handlePing()

	default:
		c.logger.Warn().Str("event_kind", string(event.Kind)).Msg("Client sent unsupported event kind")
	}
}

// handleChat validates the chat fields, stamps the relay time, and hands the
// event to the hub for fan-out to every open connection. The caller-supplied
// from field is trusted as-is.
func (c *Client) handleChat(event Event) {
	if event.From == 0 || event.To == 0 || event.Content == "" {
		c.logger.Warn().
			Int64("from", event.From).
			Int64("to", event.To).
			Msg("Client sent chat event with missing fields")
		c.SendError(errs.NewError(errs.ErrMalformedEvent))
		return
	}

	relay := Event{
		Kind:      KindChat,
		From:      event.From,
		To:        event.To,
		Content:   event.Content,
		EmittedAt: time.Now().Format(time.RFC3339),
	}

	select {
	case c.hub.broadcast <- relay:
	default:
		c.logger.Warn().Msg("Hub broadcast channel full, dropping chat event")
	}
}

// handlePing replies with a pong to this connection only.
func (c *Client) handlePing() {
	c.sendEvent(Event{
		Kind:      KindPong,
		EmittedAt: time.Now().Format(time.RFC3339),
	})
}

// SendError queues an error event describing an unusable payload.
func (c *Client) SendError(customErr *errs.CustomError) {
	c.sendEvent(Event{
		Kind:    KindError,
		Message: customErr.Message,
	})
}

// sendEvent marshals the event and queues it on the send channel, dropping it
// when the queue is full.
func (c *Client) sendEvent(event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event for client")
		return
	}

	select {
	case c.send <- messageBytes:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping event")
	}
}

// WritePump drains the send channel to the websocket and keeps the transport
// alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued payload to the websocket. Returns
// false when the loop should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a transport-level ping frame. Returns false when the
// loop should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
