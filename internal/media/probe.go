// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// File is a snapshot of a media file taken at request time. It is never
// cached: the recorder may still be appending to it.
type File struct {
	Name     string
	Path     string
	Size     int64
	MimeType string
	ModTime  time.Time
}

// Probe stats path and classifies it. Missing paths and anything that is
// not a regular file (directories, symlinks, devices) yield ErrNotFound.
// Other stat failures are returned wrapped so callers can report them as
// server errors.
func Probe(path string) (File, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if !fi.Mode().IsRegular() {
		return File{}, ErrNotFound
	}
	name := filepath.Base(path)
	return File{
		Name:     name,
		Path:     path,
		Size:     fi.Size(),
		MimeType: MimeType(name),
		ModTime:  fi.ModTime(),
	}, nil
}
