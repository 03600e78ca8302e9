// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/RaaVoo/Ravo/internal/media"
)

// FileName is the config file looked up in the working directory.
const FileName = "ravo-media.yaml"

// Config holds the raw application configuration as read from the config
// file, the environment and flags. Sizes stay strings until Resolve so that
// "1MiB" and "1048576" are both accepted.
type Config struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	MediaRoot     string        `yaml:"media_root"`
	ChunkWindow   string        `yaml:"chunk_window"`
	RateLimit     string        `yaml:"rate_limit"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	StatsInterval time.Duration `yaml:"stats_interval"`
	Watch         bool          `yaml:"watch"`
}

// Effective is the validated configuration consumed by the server.
type Effective struct {
	Host          string
	Port          int
	MediaRoot     string
	Window        media.Window
	RateLimit     int64
	LogLevel      string
	LogFormat     string
	StatsInterval time.Duration
	Watch         bool
}

// Error is a configuration error tied to the offending key.
type Error struct {
	Key   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultConfig returns the default configuration. The media root defaults
// to ./media-tmp, the directory the recorder writes to.
func DefaultConfig() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          8080,
		MediaRoot:     "media-tmp",
		ChunkWindow:   "1MiB",
		RateLimit:     "",
		LogLevel:      "info",
		LogFormat:     "console",
		StatsInterval: 5 * time.Minute,
		Watch:         true,
	}
}

// Load reads the configuration file and layers the environment on top.
// If path is empty the standard locations are tried in order:
//  1. ./ravo-media.yaml
//  2. ~/.ravo/media.yaml
//  3. /etc/ravo/media.yaml
//
// A missing file is not an error; an explicit path that does not exist is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := parseFile(path, cfg); err != nil {
			return nil, err
		}
	} else if found := discover(); found != "" {
		if err := parseFile(found, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func discover() string {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".ravo", "media.yaml"))
	}
	candidates = append(candidates, "/etc/ravo/media.yaml")
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func parseFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Key: "file", Value: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &Error{Key: "file", Value: path, Err: err}
	}
	cfg.MediaRoot = expandHome(cfg.MediaRoot)
	return nil
}

// applyEnv overrides fields from environment variables. MEDIA_TMP is the
// variable the recorder uses and is honoured when MEDIA_ROOT is unset.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MEDIA_TMP"); ok && v != "" {
		c.MediaRoot = expandHome(v)
	}
	if v, ok := lookup("MEDIA_ROOT"); ok && v != "" {
		c.MediaRoot = expandHome(v)
	}
	if v, ok := lookup("MEDIA_CHUNK_WINDOW"); ok && v != "" {
		c.ChunkWindow = v
	}
	if v, ok := lookup("MEDIA_RATE_LIMIT"); ok {
		c.RateLimit = v
	}
	if v, ok := lookup("HOST"); ok && v != "" {
		c.Host = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &Error{Key: "PORT", Value: v, Err: err}
		}
		c.Port = p
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		c.LogFormat = v
	}
	return nil
}

// Resolve validates the configuration and converts it to its effective form.
func (c *Config) Resolve() (Effective, error) {
	if c.Port < 0 || c.Port > 65535 {
		return Effective{}, &Error{Key: "port", Value: strconv.Itoa(c.Port), Err: errors.New("out of range")}
	}
	if strings.TrimSpace(c.MediaRoot) == "" {
		return Effective{}, &Error{Key: "media_root", Err: errors.New("must not be empty")}
	}
	root, err := filepath.Abs(c.MediaRoot)
	if err != nil {
		return Effective{}, &Error{Key: "media_root", Value: c.MediaRoot, Err: err}
	}

	window, err := parseSize(c.ChunkWindow)
	if err != nil {
		return Effective{}, &Error{Key: "chunk_window", Value: c.ChunkWindow, Err: err}
	}
	if window == 0 {
		return Effective{}, &Error{Key: "chunk_window", Value: c.ChunkWindow, Err: errors.New("must be positive")}
	}

	rate, err := parseSize(c.RateLimit)
	if err != nil {
		return Effective{}, &Error{Key: "rate_limit", Value: c.RateLimit, Err: err}
	}

	interval := c.StatsInterval
	if interval <= 0 {
		interval = DefaultConfig().StatsInterval
	}

	return Effective{
		Host:          c.Host,
		Port:          c.Port,
		MediaRoot:     root,
		Window:        media.Window(window),
		RateLimit:     rate,
		LogLevel:      c.LogLevel,
		LogFormat:     c.LogFormat,
		StatsInterval: interval,
		Watch:         c.Watch,
	}, nil
}

// parseSize accepts plain byte counts and humanized sizes ("512KiB", "1 MB").
// An empty string means zero.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, errors.New("too large")
	}
	return int64(n), nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
