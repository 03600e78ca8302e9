package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/RaaVoo/Ravo/internal/watcher"
)

// EventsHandler returns a handler for Server-Sent Events
// @Summary Stream media events
// @Description Subscribe to recordings appearing, growing and disappearing
// @Tags events
// @Produce text/event-stream
// @Success 200 {string} string "stream"
// @Router /media/events [get]
func EventsHandler(w *watcher.Service) http.HandlerFunc {
	return func(wResp http.ResponseWriter, r *http.Request) {
		wResp.Header().Set("Content-Type", "text/event-stream")
		wResp.Header().Set("Cache-Control", "no-cache")
		wResp.Header().Set("Connection", "keep-alive")
		wResp.Header().Set("Access-Control-Allow-Origin", "*")

		flusher, ok := wResp.(http.Flusher)
		if !ok {
			http.Error(wResp, "Streaming unsupported", http.StatusInternalServerError)
			return
		}
		wResp.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := w.Subscribe()
		defer w.Unsubscribe(ch)

		logger := hlog.FromRequest(r)
		logger.Debug().Str("remote", r.RemoteAddr).Msg("sse client connected")

		for {
			select {
			case <-r.Context().Done():
				logger.Debug().Str("remote", r.RemoteAddr).Msg("sse client disconnected")
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					continue
				}
				fmt.Fprintf(wResp, "event: %s\ndata: %s\n\n", event.Type, data)
				flusher.Flush()
			}
		}
	}
}
