// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/RaaVoo/Ravo/internal/config"
	"github.com/RaaVoo/Ravo/internal/handlers"
	"github.com/RaaVoo/Ravo/internal/logging"
	"github.com/RaaVoo/Ravo/internal/server"
	"github.com/RaaVoo/Ravo/internal/stats"
	"github.com/RaaVoo/Ravo/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search standard locations)")
	host := flag.String("host", "", "host interface to listen on")
	port := flag.Int("port", 0, "port to listen on")
	root := flag.String("root", "", "media directory to serve")
	window := flag.String("window", "", "chunk window for open-ended ranges, e.g. 1MiB")
	rateLimit := flag.String("rate-limit", "", "per-stream rate limit, e.g. 4MiB (empty = unlimited)")
	logLevel := flag.String("log-level", "", "log level (trace, debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format (console, json)")
	noWatch := flag.Bool("no-watch", false, "disable media events")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(handlers.BackendVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	// flags win, but only the ones given explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "root":
			cfg.MediaRoot = *root
		case "window":
			cfg.ChunkWindow = *window
		case "rate-limit":
			cfg.RateLimit = *rateLimit
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "no-watch":
			cfg.Watch = !*noWatch
		}
	})

	eff, err := cfg.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	if err := logging.Setup(os.Stdout, eff.LogLevel, eff.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	log.Info().Str("version", handlers.BackendVersion).Msg("ravo media server starting")
	if err := os.MkdirAll(eff.MediaRoot, 0o755); err != nil {
		log.Fatal().Err(err).Str("root", eff.MediaRoot).Msg("cannot create media root")
	}

	var w *watcher.Service
	if eff.Watch {
		w, err = watcher.New(eff.MediaRoot)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Warn().Err(err).Msg("media events disabled")
			w = nil
		}
	}
	collector := stats.NewCollector(eff.MediaRoot, eff.StatsInterval)
	collector.Start()

	s := server.New(eff, w, collector)
	actualPort, err := s.Start()
	if err != nil {
		log.Fatal().Err(err).Msg("server error")
	}

	rate := "unlimited"
	if eff.RateLimit > 0 {
		rate = humanize.IBytes(uint64(eff.RateLimit)) + "/s"
	}
	displayHost := eff.Host
	if displayHost == "0.0.0.0" || displayHost == "" {
		displayHost = "localhost"
	}
	log.Info().
		Str("url", "http://"+displayHost+":"+strconv.Itoa(actualPort)+"/media/stream/").
		Str("window", humanize.IBytes(uint64(eff.Window))).
		Str("rate", rate).
		Bool("events", w != nil).
		Msg("server started")

	// wait for interrupt (Ctrl-C) or termination signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
