package handler_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instatext/internal/app/hub"
	"instatext/internal/client"
	"instatext/internal/pkg/errs"
)

// readChat reads events until a chat event arrives or the deadline passes.
func readChat(t *testing.T, sock *client.Socket) hub.Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	events := make(chan hub.Event, 1)

	go func() {
		for {
			event, err := sock.ReadEvent()
			if err != nil {
				return
			}
			if event.Kind == hub.KindChat {
				events <- event
				return
			}
		}
	}()

	select {
	case event := <-events:
		return event
	case <-deadline:
		t.Fatal("no chat event arrived")
		return hub.Event{}
	}
}

func TestTwoUserConversationRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	api := client.NewAPI(srv.URL)
	require.NoError(t, api.Health(ctx))

	alice, err := api.CreateUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := api.CreateUser(ctx, "bob")
	require.NoError(t, err)
	require.NotEqual(t, alice.ID, bob.ID)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	aliceSock, err := client.DialSocket(ctx, wsURL)
	require.NoError(t, err)
	defer aliceSock.Close()

	bobSock, err := client.DialSocket(ctx, wsURL)
	require.NoError(t, err)
	defer bobSock.Close()

	require.NotEqual(t, aliceSock.ClientID(), bobSock.ClientID())

	aliceView := client.NewView(api, alice.ID)
	require.NoError(t, aliceView.SelectPeer(ctx, bob.ID))

	bobView := client.NewView(api, bob.ID)
	require.NoError(t, bobView.SelectPeer(ctx, alice.ID))

	// alice sends "hi": optimistic echo, relay to all sockets, store append
	_, err = aliceView.Send(ctx, aliceSock, "hi")
	require.NoError(t, err)

	// bob's view, scoped to alice, accepts the pushed copy as not-own
	require.True(t, bobView.OnEvent(readChat(t, bobSock)))
	bobEntries := bobView.Entries()
	require.Len(t, bobEntries, 1)
	assert.Equal(t, "hi", bobEntries[0].Content)
	assert.False(t, bobEntries[0].IsOwn)

	// alice's own view now holds the optimistic entry plus the relayed
	// copy, two uncorrelated facts with the same content
	require.True(t, aliceView.OnEvent(readChat(t, aliceSock)))
	aliceEntries := aliceView.Entries()
	require.Len(t, aliceEntries, 2)
	for _, entry := range aliceEntries {
		assert.Equal(t, "hi", entry.Content)
		assert.True(t, entry.IsOwn)
	}

	// once the background append completes, a reload shows exactly the
	// store-confirmed row
	aliceView.Drain()
	require.NoError(t, aliceView.SelectPeer(ctx, bob.ID))

	reloaded := aliceView.Entries()
	require.Len(t, reloaded, 1)
	assert.Equal(t, "hi", reloaded[0].Content)
	assert.NotZero(t, reloaded[0].ID)
	assert.True(t, reloaded[0].IsOwn)
}

func TestAPIUserRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	api := client.NewAPI(srv.URL)

	bob, err := api.CreateUser(ctx, "bob")
	require.NoError(t, err)
	_, err = api.CreateUser(ctx, "alice")
	require.NoError(t, err)

	users, err := api.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	fetched, err := api.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, fetched)
}

func TestAPISurfacesBusinessErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	api := client.NewAPI(srv.URL)

	alice, err := api.CreateUser(ctx, "alice")
	require.NoError(t, err)

	_, err = api.AppendMessage(ctx, alice.ID, 999, "hi")
	require.Error(t, err)

	var customErr *errs.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, errs.ErrUnknownUser, customErr.Code)

	_, err = api.GetUser(ctx, 999)
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, errs.ErrUserNotFound, customErr.Code)
}
