// Package overlay draws status text and face boxes onto frames shown to users.
package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Colours used by the on-screen feedback.
var (
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	Blue   = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

// Text writes msg at pt using the simplex Hershey font.
func Text(frame *gocv.Mat, msg string, pt image.Point, scale float64, c color.RGBA, thickness int) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.PutText(frame, msg, pt, gocv.FontHersheySimplex, scale, c, thickness)
}

// Box outlines r and, when label is non-empty, writes it just above the box.
func Box(frame *gocv.Mat, r image.Rectangle, label string, c color.RGBA) {
	if frame == nil || frame.Empty() || r.Empty() {
		return
	}
	gocv.Rectangle(frame, r, c, 2)
	if label != "" {
		Text(frame, label, image.Pt(r.Min.X, r.Min.Y-10), 0.9, c, 2)
	}
}

// Clip limits r to the bounds of frame.
func Clip(frame *gocv.Mat, r image.Rectangle) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
}
