// Package hand provides hand-pose detection types and detectors.
package hand

// Landmark indices following the MediaPipe hand model.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Finger identifies one digit of the hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// fingerJoints holds the base (MCP), proximal (PIP) and tip landmark of each digit.
// The thumb has no PIP; its IP joint plays that role.
var fingerJoints = [5]struct{ base, proximal, tip int }{
	Thumb:  {ThumbMCP, ThumbIP, ThumbTip},
	Index:  {IndexMCP, IndexPIP, IndexTip},
	Middle: {MiddleMCP, MiddlePIP, MiddleTip},
	Ring:   {RingMCP, RingPIP, RingTip},
	Pinky:  {PinkyMCP, PinkyPIP, PinkyTip},
}

// Point3D is a normalized landmark position. Y grows downwards in image space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Landmarks is the set of 21 points reported for one detected hand.
type Landmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Tip returns the tip landmark of the finger.
func (l *Landmarks) Tip(f Finger) Point3D {
	return l.Points[fingerJoints[f].tip]
}

// Proximal returns the proximal joint of the finger (IP for the thumb).
func (l *Landmarks) Proximal(f Finger) Point3D {
	return l.Points[fingerJoints[f].proximal]
}

// Base returns the knuckle (MCP) of the finger.
func (l *Landmarks) Base(f Finger) Point3D {
	return l.Points[fingerJoints[f].base]
}

// Extended reports whether the finger tip is above its proximal joint.
func (l *Landmarks) Extended(f Finger) bool {
	return l.Tip(f).Y < l.Proximal(f).Y
}

// Folded reports whether the finger tip is below its proximal joint.
func (l *Landmarks) Folded(f Finger) bool {
	return l.Tip(f).Y > l.Proximal(f).Y
}

// Curled reports whether the finger tip has dropped below its knuckle.
func (l *Landmarks) Curled(f Finger) bool {
	return l.Tip(f).Y > l.Base(f).Y
}
