// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/h2non/filetype"

	"github.com/RaaVoo/Ravo/internal/media"
	"github.com/RaaVoo/Ravo/internal/util"
)

// sniffLen covers the longest magic number filetype inspects.
const sniffLen = 262

// MediaInfo describes a media file as it is at request time.
type MediaInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	HumanSize    string    `json:"humanSize"`
	Mime         string    `json:"mime"`
	SniffedMime  string    `json:"sniffedMime,omitempty"`
	ModTime      time.Time `json:"modTime"`
	AcceptRanges string    `json:"acceptRanges"`
}

// InfoHandler returns metadata for a media file: size, the MIME type the
// stream routes will send, and the type detected from the file's leading
// bytes. A recording that is still being written may have no detectable
// type yet, in which case sniffedMime is omitted.
// @Summary Media file metadata
// @Tags media
// @Param file path string true "File name"
// @Produce json
// @Success 200 {object} MediaInfo
// @Failure 404
// @Router /media/info/{file} [get]
func (s *Streamer) InfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setStreamHeaders(w.Header())
		id := mux.Vars(r)["file"]

		path, err := util.ResolveMediaPath(s.Root, id)
		if err != nil {
			fail(w, r, id, err)
			return
		}
		file, err := media.Probe(path)
		if err != nil {
			fail(w, r, id, err)
			return
		}

		info := MediaInfo{
			Name:         file.Name,
			Size:         file.Size,
			HumanSize:    humanize.IBytes(uint64(file.Size)),
			Mime:         file.MimeType,
			ModTime:      file.ModTime,
			AcceptRanges: "bytes",
		}
		if sniffed, err := sniff(file.Path); err == nil {
			info.SniffedMime = sniffed
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}
}

// sniff detects the file type from its magic number. It returns "" when
// the type is unknown.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	kind, err := filetype.Match(buf[:n])
	if err != nil || kind == filetype.Unknown {
		return "", err
	}
	return kind.MIME.Value, nil
}
