// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EventType describes what happened to a media file.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventRemoved EventType = "removed"
)

// DefaultDebounce is the minimum gap between two "updated" events for the
// same file. A recorder appending to a file fires writes continuously.
const DefaultDebounce = 500 * time.Millisecond

// Event is the payload sent to clients.
type Event struct {
	Type EventType `json:"type"`
	Name string    `json:"name"`
	Size int64     `json:"size,omitempty"`
	Time time.Time `json:"time"`
}

// Service watches the media root and broadcasts file events to subscribers.
// Only regular files directly inside the root are reported; dotfiles are
// ignored.
type Service struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[chan Event]bool
	done    chan struct{}
	stopped sync.Once
}

// New creates a new watcher service for root.
func New(root string) (*Service, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Service{
		watcher:  w,
		root:     filepath.Clean(root),
		debounce: DefaultDebounce,
		logger:   log.With().Str("component", "watcher").Logger(),
		clients:  make(map[chan Event]bool),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the media root.
func (s *Service) Start() error {
	if err := s.watcher.Add(s.root); err != nil {
		return err
	}
	s.logger.Info().Str("root", s.root).Msg("watching media root")
	go s.loop()
	return nil
}

// Stop stops the watcher and closes all subscriber channels.
func (s *Service) Stop() {
	s.stopped.Do(func() {
		close(s.done)
		s.watcher.Close()
		s.mu.Lock()
		for ch := range s.clients {
			delete(s.clients, ch)
			close(ch)
		}
		s.mu.Unlock()
	})
}

// Subscribe registers a listener. Slow listeners miss events rather than
// blocking the watcher.
func (s *Service) Subscribe() chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, 100)
	s.clients[ch] = true
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Service) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[ch]; ok {
		delete(s.clients, ch)
		close(ch)
	}
}

// Subscribers reports the number of active listeners.
func (s *Service) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Service) loop() {
	lastUpdate := make(map[string]time.Time)

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.logger.Trace().Str("op", ev.Op.String()).Str("path", ev.Name).Msg("raw event")
			e, ok := s.translate(ev)
			if !ok {
				continue
			}
			if e.Type == EventUpdated {
				if time.Since(lastUpdate[e.Name]) < s.debounce {
					continue
				}
				lastUpdate[e.Name] = e.Time
			} else {
				delete(lastUpdate, e.Name)
			}
			s.broadcast(e)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// translate maps an fsnotify event to a media event.
func (s *Service) translate(ev fsnotify.Event) (Event, bool) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return Event{}, false
	}
	if filepath.Dir(ev.Name) != s.root {
		return Event{}, false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return Event{}, false
	}

	e := Event{Name: name, Time: time.Now().UTC()}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		e.Type = EventRemoved
		return e, true
	case ev.Has(fsnotify.Create):
		e.Type = EventCreated
	default:
		e.Type = EventUpdated
	}
	fi, err := os.Lstat(ev.Name)
	if err != nil || !fi.Mode().IsRegular() {
		return Event{}, false
	}
	e.Size = fi.Size()
	return e, true
}

func (s *Service) broadcast(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug().Str("type", string(e.Type)).Str("file", e.Name).Int("clients", len(s.clients)).Msg("broadcast")
	for ch := range s.clients {
		select {
		case ch <- e:
		default:
		}
	}
}
