/*
Package client is the Go client for the InstaText server.

This file implements the conversation view: the single ordered list of
messages displayed for the currently selected peer. It merges inputs that can
race with each other: the store-backed reload, the local optimistic echo, and
pushed chat events.
*/
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instatext/internal/app/hub"
	"instatext/internal/app/store"
	"instatext/internal/pkg/logx"
)

// appendTimeout bounds the background store append issued by Send.
const appendTimeout = 10 * time.Second

// MessageService is the durable-store surface the view reads from and writes
// to. *API satisfies it.
type MessageService interface {
	AppendMessage(ctx context.Context, senderID, receiverID int64, content string) (store.Message, error)
	Conversation(ctx context.Context, userID, peerID int64) ([]store.Message, error)
}

// ChatSender pushes chat events onto the live channel. *Socket satisfies it.
type ChatSender interface {
	SendChat(from, to int64, content string) error
}

// Entry is one row of the displayed conversation.
type Entry struct {
	// ID is the store-assigned message id; zero for entries that arrived
	// over the live channel or were synthesized locally.
	ID int64

	// TempID is the locally generated identifier of an optimistic entry.
	// It is never correlated with a store id: the optimistic copy and the
	// persisted copy remain two independent facts.
	TempID string

	SenderID   int64
	ReceiverID int64
	Content    string

	// IsOwn marks entries sent by the viewing user.
	IsOwn bool
}

// View holds the reconciled message list for one selected peer.
//
// Ordering: store-backed entries are ordered by their assigned id; entries
// added live are appended in arrival order after the last reload. Reselecting
// a peer discards all in-memory state and re-sorts strictly by store id.
type View struct {
	service MessageService

	// selfID is the viewing user's id.
	selfID int64

	mu      sync.Mutex
	peerID  int64
	entries []Entry

	// wg tracks background store appends so callers can drain them.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewView constructs a View for the given user. No peer is selected until
// SelectPeer is called.
func NewView(service MessageService, selfID int64) *View {
	return &View{
		service: service,
		selfID:  selfID,
		logger: logx.Logger().With().
			Str("component", "conversation_view").
			Int64("self_id", selfID).
			Logger(),
	}
}

// SelectPeer switches the view to the given peer: all in-memory entries are
// discarded and replaced by the authoritative store-backed history.
func (v *View) SelectPeer(ctx context.Context, peerID int64) error {
	rows, err := v.service.Conversation(ctx, v.selfID, peerID)
	if err != nil {
		return fmt.Errorf("reload conversation with peer %d: %w", peerID, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			ID:         row.ID,
			SenderID:   row.SenderID,
			ReceiverID: row.ReceiverID,
			Content:    row.Content,
			IsOwn:      row.SenderID == v.selfID,
		})
	}

	v.mu.Lock()
	v.peerID = peerID
	v.entries = entries
	v.mu.Unlock()

	return nil
}

// Send shows the message immediately as an optimistic entry, pushes it onto
// the live channel, and persists it to the store in the background. A failed
// push or append leaves the optimistic entry in place; the store write is not
// tied to the connection's lifetime.
func (v *View) Send(ctx context.Context, sender ChatSender, content string) (Entry, error) {
	v.mu.Lock()
	peerID := v.peerID
	if peerID == 0 {
		v.mu.Unlock()
		return Entry{}, fmt.Errorf("no peer selected")
	}

	entry := Entry{
		TempID:     uuid.New().String(),
		SenderID:   v.selfID,
		ReceiverID: peerID,
		Content:    content,
		IsOwn:      true,
	}
	v.entries = append(v.entries, entry)
	v.mu.Unlock()

	if err := sender.SendChat(v.selfID, peerID, content); err != nil {
		v.logger.Error().Err(err).Str("temp_id", entry.TempID).Msg("Failed to push chat event")
	}

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()

		appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
		defer cancel()

		if _, err := v.service.AppendMessage(appendCtx, v.selfID, peerID, content); err != nil {
			v.logger.Error().Err(err).Str("temp_id", entry.TempID).Msg("Failed to persist message")
		}
	}()

	return entry, nil
}

// OnEvent feeds one pushed event into the view. A chat event is accepted only
// when its {from, to} pair matches {self, selected peer} in either direction;
// everything else leaves the view unchanged. Events for unselected peers are
// dropped, not queued. Returns whether the event was accepted.
func (v *View) OnEvent(event hub.Event) bool {
	if event.Kind != hub.KindChat {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.peerID == 0 {
		return false
	}

	matches := (event.From == v.selfID && event.To == v.peerID) ||
		(event.From == v.peerID && event.To == v.selfID)
	if !matches {
		return false
	}

	v.entries = append(v.entries, Entry{
		SenderID:   event.From,
		ReceiverID: event.To,
		Content:    event.Content,
		IsOwn:      event.From == v.selfID,
	})

	return true
}

// Entries returns a copy of the current display list.
func (v *View) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries := make([]Entry, len(v.entries))
	copy(entries, v.entries)
	return entries
}

// Peer returns the currently selected peer id, zero when none is selected.
func (v *View) Peer() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.peerID
}

// Drain waits for background store appends issued by Send to finish.
func (v *View) Drain() {
	v.wg.Wait()
}
