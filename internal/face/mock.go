package face

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockRecognizer is a Recognizer whose results are set by tests.
type MockRecognizer struct {
	mu       sync.Mutex
	dets     []Detection
	err      error
	calls    int
	lastSize image.Point
}

// NewMockRecognizer returns a recognizer that finds nothing until configured.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// SetDetections sets the faces reported for every image.
func (m *MockRecognizer) SetDetections(dets ...Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dets = dets
	m.err = nil
}

// SetError makes Recognize fail.
func (m *MockRecognizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Recognize ran.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastSize returns the width and height of the last image passed to Recognize.
func (m *MockRecognizer) LastSize() image.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSize
}

// Recognize returns the configured detections.
func (m *MockRecognizer) Recognize(img *gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if img != nil {
		m.lastSize = image.Pt(img.Cols(), img.Rows())
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Detection, len(m.dets))
	copy(out, m.dets)
	return out, nil
}

// Close is a no-op.
func (m *MockRecognizer) Close() error {
	return nil
}

// TestEmbedding returns a 128-d embedding with every component set to v.
func TestEmbedding(v float32) Embedding {
	e := make(Embedding, 128)
	for i := range e {
		e[i] = v
	}
	return e
}
