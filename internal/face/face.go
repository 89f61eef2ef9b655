// Package face defines face detection and embedding for identity matching.
package face

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// DefaultTolerance is the largest embedding distance still considered the same person.
const DefaultTolerance = 0.6

// Unknown is the label given to a face that matches nobody in the gallery.
const Unknown = "Unknown"

var (
	// ErrNoFace is returned when a sample contains no detectable face.
	ErrNoFace = errors.New("no face detected")
	// ErrMultipleFaces is returned when a sample that must hold one face holds several.
	ErrMultipleFaces = errors.New("multiple faces detected")
)

// Embedding is a fixed-length face descriptor. It is never modified after creation.
type Embedding []float32

// Detection is one face found in an image.
type Detection struct {
	Box       image.Rectangle
	Embedding Embedding
}

// Recognizer finds faces in an image and computes their embeddings.
// A frame without faces yields an empty slice and a nil error.
type Recognizer interface {
	Recognize(img *gocv.Mat) ([]Detection, error)
	Close() error
}

// Distance returns the Euclidean distance between two embeddings.
// Embeddings of different length are infinitely far apart.
func Distance(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Comparator decides whether a probe embedding belongs to the same person as a known one.
type Comparator func(known, probe Embedding) bool

// WithinTolerance returns a Comparator accepting distances up to tol.
func WithinTolerance(tol float64) Comparator {
	return func(known, probe Embedding) bool {
		return Distance(known, probe) <= tol
	}
}

// Single returns the only detection in dets.
func Single(dets []Detection) (Detection, error) {
	switch len(dets) {
	case 0:
		return Detection{}, ErrNoFace
	case 1:
		return dets[0], nil
	default:
		return Detection{}, ErrMultipleFaces
	}
}

// Scale multiplies a rectangle's coordinates by factor.
func Scale(r image.Rectangle, factor float64) image.Rectangle {
	return image.Rect(
		int(math.Round(float64(r.Min.X)*factor)),
		int(math.Round(float64(r.Min.Y)*factor)),
		int(math.Round(float64(r.Max.X)*factor)),
		int(math.Round(float64(r.Max.Y)*factor)),
	)
}
