package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the blur kernel applied before differencing.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change that counts as changed.
	DiffThreshold = 25
	// AnalysisWidth is the width frames are reduced to before comparison.
	AnalysisWidth = 320
)

// MotionDetector compares each frame with the previous one and reports the
// share of pixels that changed.
type MotionDetector struct {
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
	mu        sync.Mutex
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold, along with the changed percentage. The first frame after
// creation or Reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	cur := gocv.NewMat()
	prepare(frame, &cur)

	if !m.hasPrev || m.prev.Rows() != cur.Rows() || m.prev.Cols() != cur.Cols() {
		m.replacePrev(cur)
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100.0
	m.replacePrev(cur)

	return changed > m.threshold, changed
}

// prepare writes a reduced, blurred grayscale copy of frame to dst.
func prepare(frame *gocv.Mat, dst *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	src := gray
	if gray.Cols() > AnalysisWidth {
		small := gocv.NewMat()
		defer small.Close()
		scale := float64(AnalysisWidth) / float64(gray.Cols())
		gocv.Resize(gray, &small, image.Point{}, scale, scale, gocv.InterpolationArea)
		src = small
	}

	gocv.GaussianBlur(src, dst, image.Pt(GaussianBlurSize, GaussianBlurSize), 0, 0, gocv.BorderDefault)
}

// replacePrev takes ownership of cur as the new baseline.
func (m *MotionDetector) replacePrev(cur gocv.Mat) {
	m.prev.Close()
	m.prev = cur
	m.hasPrev = true
}

// Reset drops the baseline so the next frame starts fresh.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

// Close releases the baseline frame. The detector may be used again afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

func (m *MotionDetector) clear() {
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
}

// SetThreshold changes the changed-pixel percentage. Values less than or
// equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}
