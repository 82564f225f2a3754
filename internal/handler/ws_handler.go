/*
Package handler provides the HTTP handlers and routing setup for the chat relay.

This file contains HandleWebSocket, which rate limits connection attempts,
upgrades the connection and hands it to the Hub for the rest of its lifetime.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// Room access is decided after the upgrade so refusals reach the client as an error event.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		params := chat.ParseConnectParams(r.URL.Query())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn)

		go client.WritePump()

		deps.Hub.Connect(client, params)

		logx.Debug("WebSocket connection established", "conn_id", client.ID(), "room", params.RoomID)

		client.ReadPump()
	}
}
