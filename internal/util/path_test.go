package util

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaaVoo/Ravo/internal/media"
)

func TestResolveMediaPath(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		id   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"rec%2050.mp4", "rec 50.mp4"},
		{"../../etc/passwd", "passwd"},
		{"..%2F..%2Fetc%2Fpasswd", "passwd"},
		{"/etc/passwd", "passwd"},
		{`..\..\windows\win.ini`, "win.ini"},
		{"%2e%2e%2fsecret.mp4", "secret.mp4"},
		{"nested/dir/clip.mp4", "clip.mp4"},
		{"clip.mp4/", "clip.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			got, err := ResolveMediaPath(root, tc.id)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, tc.want), got)
			assert.Equal(t, root, filepath.Dir(got), "resolved path must sit directly in the root")
		})
	}
}

func TestResolveMediaPathRejects(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"", ".", "..", "/", "%2e%2e", "../", "a/..", "%zz", "bad%00name.mp4"} {
		t.Run(id, func(t *testing.T) {
			_, err := ResolveMediaPath(root, id)
			assert.ErrorIs(t, err, media.ErrInvalidIdentifier)
		})
	}
}

func TestResolveMediaPathNeverEscapes(t *testing.T) {
	root := t.TempDir()
	ids := []string{
		"../x", "../../x", "./../x", "%2e%2e/%2e%2e/x", "..%5c..%5cx", "x/../../..", "....//x", "/../x",
	}
	for _, id := range ids {
		got, err := ResolveMediaPath(root, id)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, got)
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(rel, ".."), "%q resolved outside root: %s", id, got)
		assert.NotContains(t, rel, string(filepath.Separator))
	}
}

func TestResolveMediaPathBadEscapeKeepsCause(t *testing.T) {
	_, err := ResolveMediaPath(t.TempDir(), "clip%zz.mp4")
	require.ErrorIs(t, err, media.ErrInvalidIdentifier)
	var escErr url.EscapeError
	assert.ErrorAs(t, err, &escErr)
}
