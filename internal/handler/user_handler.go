/*
Package handler provides HTTP handler functions for user management.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"instatext/internal/pkg/errs"
	"instatext/internal/pkg/req"
	"instatext/internal/pkg/resp"
)

// respondStoreError maps a store error to the standard error response.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		resp.RespondError(w, r, customErr)
		return
	}

	resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
}

type UpsertUserInput struct {
	Username string `json:"username"`
}

// HandleUpsertUser creates a user by username, or returns the existing user
// when the name is already taken.
func HandleUpsertUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input UpsertUserInput

		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.Store.UpsertUser(r.Context(), input.Username)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, user)
	}
}

// HandleListUsers returns all users ordered by username.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Store.ListUsers(r.Context())
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, users)
	}
}

// HandleGetUser returns one user by id.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.Store.GetUser(r.Context(), id)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, user)
	}
}
