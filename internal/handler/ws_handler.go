/*
Package handler provides the HTTP handler for websocket connection upgrading.

This file contains HandleWebSocket, which rate-limits connection attempts,
upgrades the HTTP connection, and hands the client over to the hub.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"instatext/internal/app/hub"
	"instatext/internal/pkg/errs"
	"instatext/internal/pkg/limiter"
	"instatext/internal/pkg/logx"
	"instatext/internal/pkg/resp"
)

// HandleWebSocket creates the HandlerFunc that processes websocket connection
// requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client, err := hub.NewClient(deps.Hub, conn)
		if err != nil {
			logx.Error(err, "Failed to create websocket client")
			conn.Close()
			return
		}

		go client.WritePump()

		deps.Hub.Register(client)

		logx.Info("WebSocket connection established", "client_id", client.ID())

		client.ReadPump()
	}
}
