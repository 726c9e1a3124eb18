package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instatext/internal/app/hub"
	"instatext/internal/app/store"
	"instatext/internal/configs"
	"instatext/internal/handler"
	"instatext/internal/pkg/errs"
)

// memStore is an in-memory MessageStore used to test the HTTP surface
// without a database.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]store.User
	byName   map[string]int64
	messages []store.Message
	nextUser int64
	nextMsg  int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]store.User),
		byName:   make(map[string]int64),
		nextUser: 1,
		nextMsg:  1,
	}
}

func (m *memStore) UpsertUser(ctx context.Context, username string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if username == "" {
		return store.User{}, errs.NewError(errs.ErrMissingField, "username")
	}

	if id, ok := m.byName[username]; ok {
		return m.users[id], nil
	}

	user := store.User{ID: m.nextUser, Username: username}
	m.nextUser++
	m.users[user.ID] = user
	m.byName[username] = user.ID
	return user, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]store.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return store.User{}, errs.NewError(errs.ErrUserNotFound)
	}
	return user, nil
}

func (m *memStore) Append(ctx context.Context, senderID, receiverID int64, content string) (store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case senderID == 0:
		return store.Message{}, errs.NewError(errs.ErrMissingField, "senderId")
	case receiverID == 0:
		return store.Message{}, errs.NewError(errs.ErrMissingField, "receiverId")
	case content == "":
		return store.Message{}, errs.NewError(errs.ErrMissingField, "content")
	}

	if _, ok := m.users[senderID]; !ok {
		return store.Message{}, errs.NewError(errs.ErrUnknownUser)
	}
	if _, ok := m.users[receiverID]; !ok {
		return store.Message{}, errs.NewError(errs.ErrUnknownUser)
	}

	msg := store.Message{ID: m.nextMsg, SenderID: senderID, ReceiverID: receiverID, Content: content}
	m.nextMsg++
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memStore) Conversation(ctx context.Context, userID, peerID int64) ([]store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case userID == 0:
		return nil, errs.NewError(errs.ErrMissingField, "userId")
	case peerID == 0:
		return nil, errs.NewError(errs.ErrMissingField, "peerId")
	}

	matching := make([]store.Message, 0)
	for _, msg := range m.messages {
		if (msg.SenderID == userID && msg.ReceiverID == peerID) ||
			(msg.SenderID == peerID && msg.ReceiverID == userID) {
			matching = append(matching, msg)
		}
	}
	return matching, nil
}

// newTestServer wires the router with an in-memory store and a live hub.
func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	pushHub := hub.NewHub()
	t.Cleanup(pushHub.Shutdown)

	ms := newMemStore()

	router := handler.Router(&handler.AppDeps{
		Hub: pushHub,
		Config: &configs.AppConfig{
			Environment:    "development",
			AllowedOrigins: []string{},
		},
		Store: ms,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, ms
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func doRequest(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func TestUpsertUserCreatesThenReturnsExisting(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doRequest(t, http.MethodPost, srv.URL+"/api/users", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusOK, status)
	require.Zero(t, env.Code)

	var first store.User
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "alice", first.Username)
	assert.NotZero(t, first.ID)

	_, env = doRequest(t, http.MethodPost, srv.URL+"/api/users", map[string]string{"username": "alice"})
	var second store.User
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, first.ID, second.ID)
}

func TestUpsertUserRejectsMissingUsername(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doRequest(t, http.MethodPost, srv.URL+"/api/users", map[string]string{"username": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotZero(t, env.Code)
}

func TestListUsersOrderedByUsername(t *testing.T) {
	srv, ms := newTestServer(t)

	_, err := ms.UpsertUser(context.Background(), "bob")
	require.NoError(t, err)
	_, err = ms.UpsertUser(context.Background(), "alice")
	require.NoError(t, err)

	status, env := doRequest(t, http.MethodGet, srv.URL+"/api/users", nil)
	require.Equal(t, http.StatusOK, status)

	var users []store.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestGetUserNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doRequest(t, http.MethodGet, srv.URL+"/api/users/42", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotZero(t, env.Code)
}

func TestAppendThenConversationIsSymmetric(t *testing.T) {
	srv, ms := newTestServer(t)

	alice, err := ms.UpsertUser(context.Background(), "alice")
	require.NoError(t, err)
	bob, err := ms.UpsertUser(context.Background(), "bob")
	require.NoError(t, err)

	status, env := doRequest(t, http.MethodPost, srv.URL+"/api/messages", map[string]any{
		"senderId":   alice.ID,
		"receiverId": bob.ID,
		"content":    "hi",
	})
	require.Equal(t, http.StatusOK, status)
	require.Zero(t, env.Code)

	var persisted store.Message
	require.NoError(t, json.Unmarshal(env.Data, &persisted))
	assert.NotZero(t, persisted.ID)
	assert.Equal(t, "hi", persisted.Content)

	urlAB := fmt.Sprintf("%s/api/messages/conversation?userId=%d&peerId=%d", srv.URL, alice.ID, bob.ID)
	urlBA := fmt.Sprintf("%s/api/messages/conversation?userId=%d&peerId=%d", srv.URL, bob.ID, alice.ID)

	_, envAB := doRequest(t, http.MethodGet, urlAB, nil)
	_, envBA := doRequest(t, http.MethodGet, urlBA, nil)
	assert.JSONEq(t, string(envAB.Data), string(envBA.Data))
}

func TestAppendRejectsUnknownUser(t *testing.T) {
	srv, ms := newTestServer(t)

	alice, err := ms.UpsertUser(context.Background(), "alice")
	require.NoError(t, err)

	status, env := doRequest(t, http.MethodPost, srv.URL+"/api/messages", map[string]any{
		"senderId":   alice.ID,
		"receiverId": 999,
		"content":    "hi",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotZero(t, env.Code)
}

func TestConversationRejectsMissingParams(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doRequest(t, http.MethodGet, srv.URL+"/api/messages/conversation?userId=1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotZero(t, env.Code)
}

func TestHealthReportsConnectedClients(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doRequest(t, http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, status)
	require.Zero(t, env.Code)

	var data struct {
		Status           string `json:"status"`
		Service          string `json:"service"`
		ConnectedClients int    `json:"connectedClients"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ok", data.Status)
	assert.NotEmpty(t, data.Service)
	assert.Zero(t, data.ConnectedClients)
}

func TestWebSocketEndpointSendsConnectionAck(t *testing.T) {
	srv, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var ack hub.Event
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, hub.KindConnection, ack.Kind)
	assert.NotEmpty(t, ack.ClientID)
}
