/*
Package hub contains the core logic for the live push channel: the connection
registry, per-connection pumps, and message relay.

This file defines the Hub struct, the registry of every currently open
connection. Accepted chat events are relayed to all of them unconditionally;
routing by recipient is the receiving client's responsibility.
*/
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"instatext/internal/pkg/logx"
)

const broadcastChannelBuffer = 1024

// connectedMessage is the human-readable text carried by the connection
// acknowledgement.
const connectedMessage = "Connected to InstaText push channel"

// Hub maintains the set of open connections and relays every accepted chat
// event to all of them in one atomic pass.
type Hub struct {
	// clients holds every open connection, keyed by its ephemeral token.
	clients map[string]*Client

	// broadcast queues accepted chat events for relay.
	broadcast chan Event

	// register and unregister queue connection lifecycle transitions.
	register   chan *Client
	unregister chan *Client

	// stopChan signals the Run loop to terminate.
	stopChan chan struct{}

	// mu protects the clients map.
	mu sync.RWMutex

	// wg tracks the Run goroutine for Shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its run loop.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan Event, broadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "hub").Logger(),
	}

	h.wg.Add(1)

	go h.run()

	return h
}

// run is the hub's main event loop, handling registration, deregistration,
// and relay until Shutdown is called.
func (h *Hub) run() {
	defer func() {
		h.mu.Lock()
		for _, client := range h.clients {
			select {
			case <-client.send:
			default:
				close(client.send)
			}
		}
		h.clients = make(map[string]*Client)
		h.mu.Unlock()

		h.logger.Info().Msg("Hub run loop finished.")
		h.wg.Done()
	}()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()

			h.logger.Info().
				Str("client_id", client.id).
				Int("total_clients", total).
				Msg("Client connected.")

			client.sendEvent(Event{
				Kind:     KindConnection,
				ClientID: client.id,
				Message:  connectedMessage,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.id]; ok && current == client {
				delete(h.clients, client.id)

				select {
				case <-client.send:
				default:
					close(client.send)
				}

				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("Client disconnected.")
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.relay(event)

		case <-h.stopChan:
			h.logger.Info().Msg("Hub stop initiated.")
			return
		}
	}
}

// relay marshals the event once and writes it to every open connection,
// originator included. The clients map is held read-locked for the whole
// pass, so no connection can join or leave mid-relay. A recipient whose send
// queue is full is dropped from the live set; the relay continues to the
// rest.
func (h *Hub) relay(event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Error marshaling event for relay.")
		return
	}

	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.send <- messageBytes:
		default:
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("Client send channel full or closed, unregistering.")

			select {
			case h.unregister <- client:
			default:
				h.logger.Warn().Msg("Unregister channel full, skipping client cleanup.")
			}
		}
	}
	h.mu.RUnlock()
}

// Register queues the client for addition to the live set. The connection
// acknowledgement is sent once the registration is processed.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopChan:
		h.logger.Warn().Str("client_id", client.id).Msg("Register ignored, hub is stopped.")
	}
}

// ConnectedClients returns the number of currently open connections.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Shutdown stops the run loop and closes every client's send channel, which
// terminates their write pumps.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}

	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}
