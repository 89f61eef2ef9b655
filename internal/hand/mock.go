package hand

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Landmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

type digit int

const (
	raised digit = iota
	folded       // tip tucked below the knuckle
	hooked       // tip below the middle joint but still above the knuckle
)

// pose builds a right hand with the wrist at the bottom of the frame.
func pose(thumb, index, middle, ring, pinky digit) Landmarks {
	l := Landmarks{Handedness: "Right", Score: 0.95}
	l.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}
	l.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76}

	digits := [5]digit{thumb, index, middle, ring, pinky}
	xs := [5]float64{0.62, 0.56, 0.50, 0.45, 0.40}
	for f, d := range digits {
		j := fingerJoints[f]
		x := xs[f]
		l.Points[j.base] = Point3D{X: x, Y: 0.68}
		switch d {
		case raised:
			l.Points[j.proximal] = Point3D{X: x, Y: 0.55}
			l.Points[j.proximal+1] = Point3D{X: x, Y: 0.45}
			l.Points[j.tip] = Point3D{X: x, Y: 0.35}
		case folded:
			l.Points[j.proximal] = Point3D{X: x, Y: 0.64, Z: -0.05}
			l.Points[j.tip] = Point3D{X: x, Y: 0.73, Z: -0.02}
		case hooked:
			l.Points[j.proximal] = Point3D{X: x, Y: 0.60, Z: -0.04}
			l.Points[j.tip] = Point3D{X: x, Y: 0.66, Z: -0.06}
		}
		if d != raised && j.proximal+1 != j.tip {
			l.Points[j.proximal+1] = Point3D{X: x, Y: (l.Points[j.proximal].Y + l.Points[j.tip].Y) / 2, Z: -0.05}
		}
	}
	return l
}

// OpenHandLandmarks returns a hand with all five digits extended.
func OpenHandLandmarks() Landmarks { return pose(raised, raised, raised, raised, raised) }

// FistLandmarks returns a hand with every digit folded into the palm.
func FistLandmarks() Landmarks { return pose(folded, folded, folded, folded, folded) }

// VictoryLandmarks returns a hand with index and middle raised, ring and pinky folded.
func VictoryLandmarks() Landmarks { return pose(folded, raised, raised, folded, folded) }

// PointingLandmarks returns a hand with the index raised and the other fingers
// hooked, so the tips sit below the middle joints without dropping past the knuckles.
func PointingLandmarks() Landmarks { return pose(hooked, raised, hooked, hooked, hooked) }
