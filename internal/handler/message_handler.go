/*
Package handler provides HTTP handler functions for the durable message surface.
*/
package handler

import (
	"net/http"
	"strconv"

	"instatext/internal/pkg/errs"
	"instatext/internal/pkg/req"
	"instatext/internal/pkg/resp"
)

type AppendMessageInput struct {
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
}

// HandleAppendMessage persists a message and returns the stored row with its
// assigned id.
func HandleAppendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AppendMessageInput

		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		message, err := deps.Store.Append(r.Context(), input.SenderID, input.ReceiverID, input.Content)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, message)
	}
}

// HandleConversation returns every message between the unordered user pair,
// ordered by ascending id.
func HandleConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		userID, err := strconv.ParseInt(query.Get("userId"), 10, 64)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingField, "userId"))
			return
		}

		peerID, err := strconv.ParseInt(query.Get("peerId"), 10, 64)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingField, "peerId"))
			return
		}

		messages, err := deps.Store.Conversation(r.Context(), userID, peerID)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}
