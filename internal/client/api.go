/*
Package client is the Go client for the InstaText server: an HTTP client for
the durable store surface, a websocket client for the push channel, and the
conversation view that merges the two.

This file implements the HTTP API client.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"instatext/internal/app/store"
	"instatext/internal/pkg/errs"
	"instatext/internal/pkg/logx"
)

// API talks to the server's HTTP surface.
type API struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAPI constructs an API client for the given base URL
// (e.g. "http://localhost:4000").
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logx.Logger().With().Str("component", "api_client").Logger(),
	}
}

// envelope mirrors the server's standard JSON response shape.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// doJSON performs one request and decodes the response envelope into dst.
// A non-zero business code is returned as a *errs.CustomError.
func (a *API) doJSON(ctx context.Context, method, path string, body any, dst any) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}

	if env.Code != 0 {
		return &errs.CustomError{
			Code:    env.Code,
			Message: env.Message,
			Status:  res.StatusCode,
		}
	}

	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			return fmt.Errorf("decode response data from %s %s: %w", method, path, err)
		}
	}

	return nil
}

// CreateUser creates or fetches the user with the given username.
func (a *API) CreateUser(ctx context.Context, username string) (store.User, error) {
	var user store.User
	err := a.doJSON(ctx, http.MethodPost, "/api/users",
		map[string]string{"username": username}, &user)
	return user, err
}

// ListUsers returns all users ordered by username.
func (a *API) ListUsers(ctx context.Context) ([]store.User, error) {
	var users []store.User
	err := a.doJSON(ctx, http.MethodGet, "/api/users", nil, &users)
	return users, err
}

// GetUser returns one user by id.
func (a *API) GetUser(ctx context.Context, id int64) (store.User, error) {
	var user store.User
	err := a.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &user)
	return user, err
}

// AppendMessage persists a message and returns the stored row with its
// assigned id.
func (a *API) AppendMessage(ctx context.Context, senderID, receiverID int64, content string) (store.Message, error) {
	var message store.Message
	err := a.doJSON(ctx, http.MethodPost, "/api/messages",
		map[string]any{
			"senderId":   senderID,
			"receiverId": receiverID,
			"content":    content,
		}, &message)
	return message, err
}

// Conversation returns every message between the unordered user pair, ordered
// by ascending id.
func (a *API) Conversation(ctx context.Context, userID, peerID int64) ([]store.Message, error) {
	var messages []store.Message
	path := fmt.Sprintf("/api/messages/conversation?userId=%d&peerId=%d", userID, peerID)
	err := a.doJSON(ctx, http.MethodGet, path, nil, &messages)
	return messages, err
}

// Health probes the server's health endpoint.
func (a *API) Health(ctx context.Context) error {
	return a.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}
