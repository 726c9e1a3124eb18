package handler

import (
	"context"

	"instatext/internal/app/hub"
	"instatext/internal/app/store"
	"instatext/internal/configs"
)

// MessageStore is the persistence surface the handlers depend on. The
// production implementation is *store.Store.
type MessageStore interface {
	UpsertUser(ctx context.Context, username string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	GetUser(ctx context.Context, id int64) (store.User, error)
	Append(ctx context.Context, senderID, receiverID int64, content string) (store.Message, error)
	Conversation(ctx context.Context, userID, peerID int64) ([]store.Message, error)
}

// AppDeps bundles the collaborators handlers need.
type AppDeps struct {
	Hub    *hub.Hub
	Config *configs.AppConfig
	Store  MessageStore
}
