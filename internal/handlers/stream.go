// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/juju/ratelimit"
	"github.com/rs/zerolog/hlog"

	"github.com/RaaVoo/Ravo/internal/media"
	"github.com/RaaVoo/Ravo/internal/util"
)

// copyBufferSize is the largest amount of file data held in memory per
// stream. Writes are synchronous, so a slow client slows the reads.
const copyBufferSize = 32 * 1024

// Streamer serves files from a single media root with byte range support.
type Streamer struct {
	Root string
	// Window bounds open-ended ranges on the streaming route.
	Window media.Window
	// RateLimit caps each stream in bytes per second; zero disables it.
	RateLimit int64
}

// NewStreamer creates a Streamer for root, which must be absolute.
func NewStreamer(root string, window media.Window, rateLimit int64) *Streamer {
	return &Streamer{Root: root, Window: window, RateLimit: rateLimit}
}

// StreamHandler serves /media/stream/{file}. Open-ended ranges are cut to
// the chunk window so seeking stays responsive on large recordings.
// @Summary Stream media
// @Tags media
// @Param file path string true "File name"
// @Param Range header string false "bytes=<start>-<end>"
// @Success 200
// @Success 206
// @Failure 404
// @Failure 416
// @Router /media/stream/{file} [get]
func (s *Streamer) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Serve(w, r, mux.Vars(r)["file"], s.Window)
	}
}

// StaticHandler serves /media/{file}. It shares the streaming state machine
// but serves open-ended ranges through to the end of the file.
func (s *Streamer) StaticHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Serve(w, r, mux.Vars(r)["file"], media.Unbounded)
	}
}

// Serve writes the response for the media file identified by id.
//
// Responses are 200 (no Range), 206 (satisfiable Range), 416 (malformed or
// out of bounds Range), 404 (unknown or unsafe identifier) or 500 (I/O
// failure before any byte was sent). Length and range are fixed from a
// single stat; bytes appended afterwards are not sent.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, id string, window media.Window) {
	setStreamHeaders(w.Header())

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

	br, partial, err := media.ParseRange(r.Header.Get("Range"), file.Size, window)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Str("file", file.Name).Msg("unsatisfiable range")
		w.Header().Set("Content-Range", media.UnsatisfiedRange(file.Size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if !partial {
		br = media.ByteRange{Start: 0, End: file.Size - 1}
	}

	f, err := os.Open(file.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// removed between stat and open
			err = media.ErrNotFound
		}
		fail(w, r, id, err)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", file.MimeType)
	h.Set("Content-Disposition", "inline")
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	status := http.StatusOK
	if partial {
		h.Set("Content-Range", br.ContentRange(file.Size))
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)
	if r.Method == http.MethodHead || br.Length() == 0 {
		return
	}

	n, err := s.copyRange(r.Context(), w, f, br)
	logger := hlog.FromRequest(r).With().
		Str("component", "stream").
		Str("file", file.Name).
		Int64("start", br.Start).
		Int64("end", br.End).
		Int64("sent", n).
		Logger()
	switch {
	case errors.Is(err, media.ErrStreamInterrupted):
		logger.Debug().Err(err).Msg("client went away")
	case err != nil:
		logger.Error().Err(err).Msg("stream aborted")
	case n < br.Length():
		logger.Warn().Int64("want", br.Length()).Msg("file shrank while streaming")
	default:
		logger.Debug().Str("size", humanize.IBytes(uint64(n))).Int("status", status).Msg("stream complete")
	}
}

// copyRange copies exactly br from f to w unless the client goes away or
// the file shrinks. The section reader never reads past br.End.
func (s *Streamer) copyRange(ctx context.Context, w io.Writer, f io.ReaderAt, br media.ByteRange) (int64, error) {
	src := &contextReader{ctx: ctx, r: io.NewSectionReader(f, br.Start, br.Length())}
	buf := make([]byte, copyBufferSize)
	if s.RateLimit <= 0 {
		return io.CopyBuffer(clientWriter{w}, src, buf)
	}
	// one read never needs more than a second's worth of tokens
	if s.RateLimit < int64(len(buf)) {
		buf = buf[:s.RateLimit]
	}
	bucket := ratelimit.NewBucketWithRate(float64(s.RateLimit), s.RateLimit)
	return throttledCopy(ctx, clientWriter{w}, src, buf, bucket)
}

// throttledCopy is io.CopyBuffer with a token bucket between read and
// write. The wait for tokens ends early when ctx is done.
func throttledCopy(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, bucket *ratelimit.Bucket) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if d := bucket.Take(int64(n)); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-ctx.Done():
					t.Stop()
					return written, fmt.Errorf("%w: %w", media.ErrStreamInterrupted, ctx.Err())
				case <-t.C:
				}
			}
			nw, werr := dst.Write(buf[:n])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// contextReader stops reading once the request context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", media.ErrStreamInterrupted, err)
	}
	return c.r.Read(p)
}

// clientWriter marks write failures as the client going away. It also
// hides io.ReaderFrom so that io.CopyBuffer uses our buffer.
type clientWriter struct {
	w io.Writer
}

func (c clientWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", media.ErrStreamInterrupted, err)
	}
	return n, nil
}

// setStreamHeaders applies the headers every media response carries.
// Recordings change while a session is active, so nothing may be cached.
func setStreamHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Cache-Control", "no-store")
}

// statusFor maps a resolve, probe or open error to its HTTP status.
// Range errors never get here: a 416 needs the file size, so Serve writes
// it itself.
func statusFor(err error) int {
	switch {
	case errors.Is(err, media.ErrInvalidIdentifier), errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, id string, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		util.RecordMissingAccess(id)
		http.Error(w, "not found", status)
		return
	}
	hlog.FromRequest(r).Error().Err(err).Str("file", id).Msg("media request failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// NotFound is the router's fallback for unmatched paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w.Header())
	http.Error(w, "not found", http.StatusNotFound)
}

// MethodNotAllowed is the router's fallback for a known path requested
// with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w.Header())
	w.Header().Set("Allow", "GET, HEAD, OPTIONS")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
