// Package testdata builds synthetic camera frames for tests that need real
// gocv images without a camera attached.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame dimensions used by the fixtures.
const (
	Width  = 640
	Height = 480
)

// Frame returns a grey frame of the fixture size with a lighter block where a
// face would sit. shade sets the background brightness so consecutive frames
// can differ.
func Frame(shade uint8) *gocv.Mat {
	s := float64(shade)
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(s, s, s, 0), Height, Width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&m, image.Rect(240, 120, 400, 300), color.RGBA{R: 210, G: 180, B: 160, A: 255}, -1)
	return &m
}

// Sequence returns n frames whose background alternates between two shades,
// which the motion detector sees as movement.
func Sequence(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		shade := uint8(60)
		if i%2 == 1 {
			shade = 140
		}
		frames[i] = Frame(shade)
	}
	return frames
}

// Close releases every frame.
func Close(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
