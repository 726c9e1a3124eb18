/*
Package handler provides the HTTP handlers and routing setup for the InstaText server.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting middleware before delegating to the user, message, and websocket
handlers.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"instatext/internal/pkg/limiter"
	"instatext/internal/pkg/logx"
	"instatext/internal/pkg/resp"
)

const (
	// UpsertRate limits user create-or-fetch calls per IP.
	UpsertRate  = 0.1
	UpsertBurst = 3

	// ConnectRate limits websocket connection attempts per IP.
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// Router sets up the HTTP routing table for the application.
func Router(deps *AppDeps) http.Handler {
	upsertLimiter := limiter.NewIPRateLimiter(rate.Limit(UpsertRate), UpsertBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":           "ok",
			"service":          "InstaText server",
			"connectedClients": deps.Hub.ConnectedClients(),
			"timestamp":        time.Now().Format(time.RFC3339),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/users", func(users chi.Router) {
			rateLimitedUpsert := upsertLimiter.Middleware(HandleUpsertUser(deps))
			users.Post("/", http.HandlerFunc(rateLimitedUpsert.ServeHTTP))
			users.Get("/", HandleListUsers(deps))
			users.Get("/{id}", HandleGetUser(deps))
		})

		api.Route("/messages", func(messages chi.Router) {
			messages.Post("/", HandleAppendMessage(deps))
			messages.Get("/conversation", HandleConversation(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
