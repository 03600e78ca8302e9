package util

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/RaaVoo/Ravo/internal/media"
)

// ResolveMediaPath maps a caller supplied identifier to an absolute path
// directly inside root. The identifier is URL-decoded and reduced to its
// last path element, so "../" sequences, absolute prefixes and backslash
// separators cannot leave root. root must already be absolute.
func ResolveMediaPath(root string, id string) (string, error) {
	decoded, err := url.PathUnescape(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", media.ErrInvalidIdentifier, err)
	}
	name := path.Base(strings.ReplaceAll(decoded, `\`, "/"))
	switch {
	case name == "", name == ".", name == "..", name == "/":
		return "", media.ErrInvalidIdentifier
	case strings.ContainsRune(name, 0):
		return "", media.ErrInvalidIdentifier
	}

	rootAbs := filepath.Clean(root)
	candidate := filepath.Join(rootAbs, name)
	// ensure the parent is root itself
	rel, err := filepath.Rel(rootAbs, candidate)
	if err != nil || rel != name || strings.HasPrefix(rel, "..") {
		return "", media.ErrInvalidIdentifier
	}
	return candidate, nil
}
