package hand

import "gocv.io/x/gocv"

// Detector finds hands in a video frame.
type Detector interface {
	// Detect returns the landmarks of every detected hand.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Landmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. Attendance only looks at one.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the lookup of hand_service.py.
	ScriptPath string
}

// DefaultConfig returns the detector settings used for attendance capture.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// First returns the first detected hand, or nil when none were found.
func First(hands []Landmarks) *Landmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
