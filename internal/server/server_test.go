package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaaVoo/Ravo/internal/config"
	"github.com/RaaVoo/Ravo/internal/media"
	"github.com/RaaVoo/Ravo/internal/stats"
	"github.com/RaaVoo/Ravo/internal/watcher"
)

func testConfig(root string) config.Effective {
	return config.Effective{
		Host:      "127.0.0.1",
		Port:      0,
		MediaRoot: root,
		Window:    media.Window(1024),
	}
}

func get(t *testing.T, url string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutes(t *testing.T) {
	root := t.TempDir()
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "cam 1.mp4"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "info"), []byte("x"), 0o644))

	s := New(testConfig(root), nil, stats.NewCollector(root, time.Hour))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	t.Run("stream window", func(t *testing.T) {
		resp := get(t, ts.URL+"/media/stream/cam%201.mp4", map[string]string{"Range": "bytes=100-"})
		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 100-1123/4096", resp.Header.Get("Content-Range"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, data[100:1124], body)
	})

	t.Run("static unbounded", func(t *testing.T) {
		resp := get(t, ts.URL+"/media/cam%201.mp4", map[string]string{"Range": "bytes=100-"})
		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 100-4095/4096", resp.Header.Get("Content-Range"))
	})

	t.Run("encoded traversal", func(t *testing.T) {
		resp := get(t, ts.URL+"/media/stream/..%2F..%2Fetc%2Fshadow", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("fixed paths win", func(t *testing.T) {
		resp := get(t, ts.URL+"/media/info/cam%201.mp4", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		// a file named "info" is still reachable from the static route
		resp = get(t, ts.URL+"/media/info", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("health", func(t *testing.T) {
		for _, p := range []string{"/health", "/ping", "/homecam/health", "/api/version", "/api/stats"} {
			resp := get(t, ts.URL+p, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode, p)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/media/stream/cam%201.mp4", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Range")
		assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "Content-Range")
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/media/stream/cam%201.mp4", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("unmatched media path", func(t *testing.T) {
		resp := get(t, ts.URL+"/media/stream/", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("request id", func(t *testing.T) {
		resp := get(t, ts.URL+"/health", nil)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	})
}

func TestEventFeeds(t *testing.T) {
	root := t.TempDir()
	w, err := watcher.New(root)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	s := New(testConfig(root), w, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Shutdown(context.Background())

	resp := get(t, ts.URL+"/media/events", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/media/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return w.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "new.mp4"), []byte("abc"), 0o644))

	sc := bufio.NewScanner(resp.Body)
	var sseData string
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			sseData = line
			break
		}
	}
	assert.Contains(t, sseData, `"name":"new.mp4"`)

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev watcher.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "new.mp4", ev.Name)
}

func TestStartShutdown(t *testing.T) {
	s := New(testConfig(t.TempDir()), nil, nil)
	port, err := s.Start()
	require.NoError(t, err)
	require.NotZero(t, port)

	resp := get(t, fmt.Sprintf("http://127.0.0.1:%d/ping", port), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
