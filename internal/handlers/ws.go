// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/RaaVoo/Ravo/internal/watcher"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventsSocketHandler upgrades the connection to a WebSocket and pushes
// media events as JSON text frames. Messages from the client are ignored
// apart from close and pong frames.
// @Summary Media events over WebSocket
// @Tags events
// @Success 101
// @Router /ws/media/events [get]
func EventsSocketHandler(w *watcher.Service) http.HandlerFunc {
	return func(wResp http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r)
		conn, err := upgrader.Upgrade(wResp, r, nil)
		if err != nil {
			// Upgrade already replied with an HTTP error
			logger.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ch := w.Subscribe()
		defer w.Unsubscribe(ch)
		logger.Debug().Str("remote", r.RemoteAddr).Msg("ws client connected")

		// reader: detect close and keep the pong deadline moving
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-closed:
				logger.Debug().Str("remote", r.RemoteAddr).Msg("ws client disconnected")
				return
			case <-r.Context().Done():
				return
			case event, ok := <-ch:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(wsWriteWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}
}
