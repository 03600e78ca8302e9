package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch chan Event, want EventType, name string) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			require.True(t, ok, "channel closed")
			if e.Type == want && e.Name == name {
				return e
			}
		case <-timeout:
			t.Fatalf("no %s event for %s", want, name)
		}
	}
}

func TestServiceBroadcasts(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	ch := s.Subscribe()
	assert.Equal(t, 1, s.Subscribers())

	path := filepath.Join(root, "rec.mp4")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))
	waitFor(t, ch, EventCreated, "rec.mp4")

	require.NoError(t, os.Remove(path))
	waitFor(t, ch, EventRemoved, "rec.mp4")

	s.Unsubscribe(ch)
	assert.Equal(t, 0, s.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestTranslate(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	defer s.Stop()

	path := filepath.Join(root, "clip.webm")
	require.NoError(t, os.WriteFile(path, make([]byte, 42), 0o644))

	e, ok := s.translate(fsnotify.Event{Name: path, Op: fsnotify.Write})
	require.True(t, ok)
	assert.Equal(t, EventUpdated, e.Type)
	assert.Equal(t, int64(42), e.Size)

	e, ok = s.translate(fsnotify.Event{Name: path, Op: fsnotify.Create})
	require.True(t, ok)
	assert.Equal(t, EventCreated, e.Type)

	_, ok = s.translate(fsnotify.Event{Name: path, Op: fsnotify.Chmod})
	assert.False(t, ok)

	_, ok = s.translate(fsnotify.Event{Name: filepath.Join(root, ".partial"), Op: fsnotify.Create})
	assert.False(t, ok)

	_, ok = s.translate(fsnotify.Event{Name: filepath.Join(root, "sub", "x.mp4"), Op: fsnotify.Create})
	assert.False(t, ok)

	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))
	_, ok = s.translate(fsnotify.Event{Name: filepath.Join(root, "dir"), Op: fsnotify.Create})
	assert.False(t, ok, "directories are not media")

	e, ok = s.translate(fsnotify.Event{Name: filepath.Join(root, "gone.mp4"), Op: fsnotify.Remove})
	require.True(t, ok)
	assert.Equal(t, EventRemoved, e.Type)
}

func TestStopClosesSubscribers(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	ch := s.Subscribe()
	s.Stop()
	s.Stop()
	_, ok := <-ch
	assert.False(t, ok)
}
