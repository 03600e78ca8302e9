// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive interval of byte offsets within a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length is the number of bytes covered by the range.
func (br ByteRange) Length() int64 {
	return br.End - br.Start + 1
}

// ContentRange renders the Content-Range header value for a 206 response.
func (br ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, size)
}

// UnsatisfiedRange renders the Content-Range header value for a 416 response.
func UnsatisfiedRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange parses a Range request header against a file of the given size.
//
// An empty header returns ok == false and no error. Only the single-range
// form "bytes=<start>-<end>" is accepted, with <end> optional; when <end> is
// absent the window decides where the range stops. Range sets containing a
// comma are rejected, as are suffix ranges ("bytes=-500"). Every rejection
// is reported as ErrUnsatisfiableRange.
func ParseRange(header string, size int64, w Window) (br ByteRange, ok bool, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return ByteRange{}, false, nil
	}
	const unit = "bytes="
	if len(header) < len(unit) || !strings.EqualFold(header[:len(unit)], unit) {
		return ByteRange{}, false, fmt.Errorf("%w: unsupported range unit", ErrUnsatisfiableRange)
	}
	set := strings.TrimSpace(header[len(unit):])
	if strings.Contains(set, ",") {
		return ByteRange{}, false, fmt.Errorf("%w: multiple ranges not supported", ErrUnsatisfiableRange)
	}
	startStr, endStr, found := strings.Cut(set, "-")
	if !found {
		return ByteRange{}, false, fmt.Errorf("%w: invalid range format", ErrUnsatisfiableRange)
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if !isDigits(startStr) {
		return ByteRange{}, false, fmt.Errorf("%w: invalid range start", ErrUnsatisfiableRange)
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start >= size {
		return ByteRange{}, false, fmt.Errorf("%w: start %s outside %d bytes", ErrUnsatisfiableRange, startStr, size)
	}

	if endStr == "" {
		return ByteRange{Start: start, End: w.End(start, size)}, true, nil
	}
	if !isDigits(endStr) {
		return ByteRange{}, false, fmt.Errorf("%w: invalid range end", ErrUnsatisfiableRange)
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		// only overflow is possible here; clamp like any other overshoot
		if !errors.Is(err, strconv.ErrRange) {
			return ByteRange{}, false, fmt.Errorf("%w: invalid range end", ErrUnsatisfiableRange)
		}
		end = size - 1
	}
	if end < start {
		return ByteRange{}, false, fmt.Errorf("%w: range end before start", ErrUnsatisfiableRange)
	}
	if end >= size {
		end = size - 1
	}
	return ByteRange{Start: start, End: end}, true, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
