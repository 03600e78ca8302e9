package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectCountsMedia(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.mp4"), make([]byte, 1000), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.jpg"), make([]byte, 24), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), make([]byte, 5), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	c := NewCollector(root, 0)
	s := c.Collect()
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, int64(1024), s.MediaBytes)
	assert.Equal(t, "1.0 KiB", s.MediaHuman)
	assert.NotZero(t, s.Timestamp)
}

func TestHistoryBounded(t *testing.T) {
	c := NewCollector(t.TempDir(), 0)
	c.maxHistory = 3
	for i := 0; i < 5; i++ {
		c.Collect()
	}
	h := c.GetHistory(0)
	assert.Len(t, h, 3)

	last := h[len(h)-1].Timestamp
	assert.Empty(t, c.GetHistory(last))
}

func TestHandler(t *testing.T) {
	c := NewCollector(t.TempDir(), 0)
	c.Collect()

	rec := httptest.NewRecorder()
	Handler(c)(rec, httptest.NewRequest(http.MethodGet, "/api/stats?since=0", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var got []Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestMissingRoot(t *testing.T) {
	c := NewCollector(filepath.Join(t.TempDir(), "absent"), 0)
	s := c.Collect()
	assert.Zero(t, s.Files)
}
