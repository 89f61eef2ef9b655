package server

import (
	"fmt"
	"net/http"
	"time"
)

// defaultFrameInterval gives about 15 fps.
const defaultFrameInterval = 66 * time.Millisecond

// StreamHandler serves the latest annotated frames as MJPEG.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler. A zero interval uses about 15 fps.
func NewStreamHandler(frames FrameSource, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return &StreamHandler{frames: frames, interval: interval}
}

// ServeHTTP streams frames until the client disconnects. A frame is only
// written when it differs from the previous one sent.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		if jpeg := h.frames.LatestJPEG(); len(jpeg) > 0 && !sameFrame(jpeg, last) {
			if err := writePart(w, jpeg); err != nil {
				return
			}
			last = jpeg
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// sameFrame compares by identity; the app replaces the slice for every frame.
func sameFrame(a, b []byte) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
