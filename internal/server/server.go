// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/RaaVoo/Ravo/internal/config"
	"github.com/RaaVoo/Ravo/internal/handlers"
	"github.com/RaaVoo/Ravo/internal/stats"
	"github.com/RaaVoo/Ravo/internal/watcher"
)

// Server wires the media handlers into a router and owns the listener.
type Server struct {
	Config   config.Effective
	Router   *mux.Router
	Streamer *handlers.Streamer
	// Watcher and Stats are optional; their routes are only registered
	// when they are set.
	Watcher *watcher.Service
	Stats   stats.Collector

	logger     zerolog.Logger
	httpServer *http.Server
}

// New creates a Server for cfg and registers its routes.
func New(cfg config.Effective, w *watcher.Service, c stats.Collector) *Server {
	s := &Server{
		Config:   cfg,
		Router:   mux.NewRouter().UseEncodedPath(),
		Streamer: handlers.NewStreamer(cfg.MediaRoot, cfg.Window, cfg.RateLimit),
		Watcher:  w,
		Stats:    c,
		logger:   log.With().Str("component", "server").Logger(),
	}
	s.Routes()
	return s
}

// Routes registers all HTTP handlers on the router. The fixed /media/...
// paths are registered before /media/{file} so they take precedence.
func (s *Server) Routes() {
	r := s.Router
	read := []string{http.MethodGet, http.MethodHead}
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	r.HandleFunc("/health", handlers.Health).Methods(read...)
	r.HandleFunc("/ping", handlers.Health).Methods(read...)
	r.HandleFunc("/homecam/health", handlers.Health).Methods(read...)
	r.HandleFunc("/api/version", handlers.VersionHandler).Methods(read...)
	if s.Stats != nil {
		r.Handle("/api/stats", stats.Handler(s.Stats)).Methods(http.MethodGet)
	}

	r.Handle("/media/stream/{file}", s.Streamer.StreamHandler()).Methods(read...)
	r.Handle("/media/info/{file}", s.Streamer.InfoHandler()).Methods(http.MethodGet)
	if s.Watcher != nil {
		r.Handle("/media/events", handlers.EventsHandler(s.Watcher)).Methods(http.MethodGet)
		r.Handle("/ws/media/events", handlers.EventsSocketHandler(s.Watcher)).Methods(http.MethodGet)
	}
	r.Handle("/media/{file}", s.Streamer.StaticHandler()).Methods(read...)
}

// Handler returns the router wrapped in the logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = preflight(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.EscapedPath()).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.RemoteAddrHandler("remote")(h)
	h = hlog.NewHandler(log.Logger)(h)
	return h
}

// preflight answers CORS preflight requests for every route.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Range, Content-Type, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")
		h.Set("Access-Control-Max-Age", "600")
		w.WriteHeader(http.StatusNoContent)
	})
}

// Start listens on the configured host and port and serves in the
// background. It returns the bound port, which differs from the configured
// one when that is 0.
func (s *Server) Start() (int, error) {
	addr := net.JoinHostPort(s.Config.Host, strconv.Itoa(s.Config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, err
	}
	port := ln.Addr().(*net.TCPAddr).Port
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("root", s.Config.MediaRoot).
		Int64("window", int64(s.Config.Window)).
		Msg("media server listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("server error")
		}
	}()
	return port, nil
}

// Shutdown stops the event feeds so long-lived subscribers return, then
// drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Watcher != nil {
		s.Watcher.Stop()
	}
	if s.Stats != nil {
		s.Stats.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("graceful shutdown incomplete, closing")
		return s.httpServer.Close()
	}
	return nil
}
