package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/wavein/internal/app"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	// Create a temporary directory with a static file
	tmpDir, err := os.MkdirTemp("", "wavein-server-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a test HTML file
	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})

	t.Run("routes without collaborators are not registered", func(t *testing.T) {
		s := New(Config{})
		for _, path := range []string{"/api/attendance", "/api/students", "/api/registration_status", "/api/gallery", "/video_feed"} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
			}
		}
	})
}

// fakeFrames hands out a new slice each time set is called.
type fakeFrames struct {
	mu    sync.Mutex
	frame []byte
}

func (f *fakeFrames) set(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = append([]byte(nil), b...)
}

func (f *fakeFrames) LatestJPEG() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

func TestStreamHandler(t *testing.T) {
	frames := &fakeFrames{}
	frames.set([]byte("jpeg-1"))
	h := NewStreamHandler(frames, 5*time.Millisecond)

	t.Run("rejects non-GET", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/video_feed", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})

	t.Run("writes each frame once", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "/video_feed", nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
			t.Errorf("unexpected Content-Type %q", ct)
		}
		body := rec.Body.String()
		if n := strings.Count(body, "--frame"); n != 1 {
			t.Errorf("expected 1 part for an unchanged frame, got %d", n)
		}
		if !strings.Contains(body, "Content-Length: 6\r\n\r\njpeg-1\r\n") {
			t.Errorf("unexpected part %q", body)
		}
	})

	t.Run("skips while no frame is available", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		rec := httptest.NewRecorder()

		NewStreamHandler(&fakeFrames{}, 5*time.Millisecond).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video_feed", nil).WithContext(ctx))

		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", rec.Body.String())
		}
	})
}

func TestStreamHandler_NewFrames(t *testing.T) {
	frames := &fakeFrames{}
	frames.set([]byte("a"))
	ts := httptest.NewServer(NewStreamHandler(frames, 2*time.Millisecond))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	readPart := func() string {
		t.Helper()
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				t.Fatalf("read error = %v", err)
			}
			if line == "\r\n" {
				break
			}
		}
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		return strings.TrimSuffix(line, "\r\n")
	}

	if got := readPart(); got != "a" {
		t.Errorf("first part = %q, want a", got)
	}
	frames.set([]byte("b"))
	if got := readPart(); got != "b" {
		t.Errorf("second part = %q, want b", got)
	}
}

// fakeEvents is an EventSource fed by the test.
type fakeEvents struct {
	ch       chan app.Event
	canceled chan struct{}
	once     sync.Once
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{ch: make(chan app.Event, 4), canceled: make(chan struct{})}
}

func (f *fakeEvents) Subscribe() (<-chan app.Event, func()) {
	return f.ch, func() { f.once.Do(func() { close(f.canceled) }) }
}

func TestEventsHandler(t *testing.T) {
	events := newFakeEvents()
	ts := httptest.NewServer(New(Config{Events: events}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	resp.Body.Close()

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events.ch <- app.Event{Type: app.EventAttendanceMarked, Payload: map[string]string{"Name": "Alice"}, At: at}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}
	if got.Type != app.EventAttendanceMarked || got.Payload["Name"] != "Alice" {
		t.Errorf("unexpected event %+v", got)
	}

	conn.Close()
	select {
	case <-events.canceled:
	case <-time.After(2 * time.Second):
		t.Error("subscription was not canceled after the client left")
	}
}

func TestEventsHandler_RequiresUpgrade(t *testing.T) {
	rec := httptest.NewRecorder()
	NewEventsHandler(newFakeEvents()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if len(body) == 0 {
		t.Error("expected an error body")
	}
}
