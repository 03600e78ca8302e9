// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package stats

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	defaultHistorySize = 1000 // ~3 days of 5-min intervals
	defaultInterval    = 5 * time.Minute
)

// MediaCollector samples the media root and the host on a fixed interval
// and keeps a bounded history in memory.
type MediaCollector struct {
	mu         sync.RWMutex
	root       string
	history    []Snapshot
	maxHistory int
	interval   time.Duration
	stopChan   chan struct{}
	stopOnce   sync.Once
	logger     zerolog.Logger
}

// NewCollector creates a collector for root. A non-positive interval
// selects the default of five minutes.
func NewCollector(root string, interval time.Duration) *MediaCollector {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &MediaCollector{
		root:       root,
		history:    make([]Snapshot, 0, 16),
		maxHistory: defaultHistorySize,
		interval:   interval,
		stopChan:   make(chan struct{}),
		logger:     log.With().Str("component", "stats").Logger(),
	}
}

func (c *MediaCollector) Start() {
	go c.loop()
}

func (c *MediaCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// GetHistory returns the snapshots taken after since (unix seconds).
// since <= 0 returns everything.
func (c *MediaCollector) GetHistory(since int64) []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := 0
	if since > 0 {
		start = len(c.history)
		for i, s := range c.history {
			if s.Timestamp > since {
				start = i
				break
			}
		}
	}
	out := make([]Snapshot, len(c.history)-start)
	copy(out, c.history[start:])
	return out
}

func (c *MediaCollector) loop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-c.stopChan:
			return
		}
	}
}

// Collect takes one snapshot, records it and returns it.
func (c *MediaCollector) Collect() Snapshot {
	s := c.sample()

	c.mu.Lock()
	if len(c.history) >= c.maxHistory {
		copy(c.history, c.history[1:])
		c.history[c.maxHistory-1] = s
	} else {
		c.history = append(c.history, s)
	}
	c.mu.Unlock()

	c.logger.Debug().Int("files", s.Files).Str("media", s.MediaHuman).Float64("disk", s.Disk).Msg("sampled")
	return s
}

func (c *MediaCollector) sample() Snapshot {
	s := Snapshot{Timestamp: time.Now().Unix()}

	files, size, err := scanRoot(c.root)
	if err != nil {
		c.logger.Warn().Err(err).Str("root", c.root).Msg("scan media root")
	}
	s.Files = files
	s.MediaBytes = size
	s.MediaHuman = humanize.IBytes(uint64(size))

	if d, err := disk.Usage(c.root); err == nil {
		s.Disk = d.UsedPercent
		s.DiskFree = d.Free
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPU = pct[0]
	}
	if v, err := mem.VirtualMemory(); err == nil {
		s.Memory = v.UsedPercent
	}
	if u, err := host.Uptime(); err == nil {
		s.Uptime = u
	}
	return s
}

// scanRoot counts the servable files directly inside root.
func scanRoot(root string) (int, int64, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, 0, err
	}
	var n int
	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fi, err := os.Lstat(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		n++
		total += fi.Size()
	}
	return n, total, nil
}
