// Copyright (c) 2025 Ravo authors
// All rights reserved. Use of this source code is governed by an
// MIT-style license that can be found in the LICENSE file.

package media

import "errors"

var (
	// ErrInvalidIdentifier reports a file identifier that is empty or
	// unsafe once decoded and reduced to a bare file name.
	ErrInvalidIdentifier = errors.New("invalid media identifier")

	// ErrNotFound reports a path that does not exist or is not a regular file.
	ErrNotFound = errors.New("media file not found")

	// ErrUnsatisfiableRange reports a Range header that is malformed or
	// whose start lies outside the file.
	ErrUnsatisfiableRange = errors.New("range not satisfiable")

	// ErrStreamInterrupted reports a transfer cut short by the client.
	ErrStreamInterrupted = errors.New("stream interrupted")
)
