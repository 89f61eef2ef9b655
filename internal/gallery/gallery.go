// Package gallery holds the enrolled face embeddings and matches faces against them.
package gallery

import (
	"image"
	"log"
	"math"
	"sync"

	"github.com/ayusman/wavein/internal/face"
	"gocv.io/x/gocv"
)

// Defaults for matching and enrollment samples.
const (
	DefaultThreshold  = 0.6
	DefaultDownsample = 0.25
	DefaultSampleSize = 200
)

// Config controls how samples are embedded and frames are matched.
type Config struct {
	// Threshold is the distance below which the nearest entry is accepted.
	Threshold float64
	// Downsample scales frames before detection; boxes are scaled back by its inverse.
	Downsample float64
	// SampleSize is the square size enrollment crops are resized to before embedding.
	SampleSize int
	// Compare must also agree before a nearest entry is accepted.
	Compare face.Comparator
}

// DefaultConfig returns the matching configuration used in production.
func DefaultConfig() Config {
	return Config{
		Threshold:  DefaultThreshold,
		Downsample: DefaultDownsample,
		SampleSize: DefaultSampleSize,
		Compare:    face.WithinTolerance(face.DefaultTolerance),
	}
}

// Match is a face found in a frame, labelled with a gallery name or face.Unknown.
type Match struct {
	Box      image.Rectangle
	Name     string
	Distance float64
}

// Known reports whether the face matched a gallery entry.
func (m Match) Known() bool {
	return m.Name != face.Unknown
}

// Gallery is the ordered list of (name, embedding) pairs used for identification.
// Every accepted sample is its own entry; a name may appear many times.
type Gallery struct {
	mu         sync.RWMutex
	names      []string
	embeddings []face.Embedding

	rec   face.Recognizer
	store Store
	cfg   Config
}

// New creates an empty gallery. Call Load to read persisted entries.
func New(rec face.Recognizer, store Store, cfg Config) *Gallery {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Downsample <= 0 || cfg.Downsample > 1 {
		cfg.Downsample = def.Downsample
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.Compare == nil {
		cfg.Compare = def.Compare
	}

	return &Gallery{
		rec:   rec,
		store: store,
		cfg:   cfg,
	}
}

// Load replaces the in-memory entries with the persisted ones and returns how
// many were loaded. Missing or corrupt storage leaves the gallery empty.
func (g *Gallery) Load() int {
	names, embeddings, err := g.store.Load()
	if err != nil {
		log.Printf("warning: could not load face gallery, starting empty: %v", err)
		names, embeddings = nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.names = names
	g.embeddings = embeddings

	if len(names) == 0 {
		log.Println("No existing face embeddings found, starting fresh")
	} else {
		log.Printf("Loaded %d face embeddings", len(names))
	}
	return len(names)
}

// Persist writes every entry to the store, overwriting what was there.
func (g *Gallery) Persist() error {
	g.mu.RLock()
	names := append([]string(nil), g.names...)
	embeddings := append([]face.Embedding(nil), g.embeddings...)
	g.mu.RUnlock()

	if err := g.store.Save(names, embeddings); err != nil {
		return err
	}
	log.Printf("Saved %d face embeddings", len(names))
	return nil
}

// Add embeds a face sample and appends it under name. The sample is resized to
// the canonical size first. It returns false, leaving the gallery unchanged,
// when the sample holds no face or more than one.
func (g *Gallery) Add(sample *gocv.Mat, name string) bool {
	if sample == nil || sample.Empty() || name == "" {
		return false
	}

	resized := gocv.NewMat()
	defer resized.Close()
	size := image.Pt(g.cfg.SampleSize, g.cfg.SampleSize)
	gocv.Resize(*sample, &resized, size, 0, 0, gocv.InterpolationLinear)

	dets, err := g.rec.Recognize(&resized)
	if err != nil {
		log.Printf("Error adding face sample for %s: %v", name, err)
		return false
	}

	det, err := face.Single(dets)
	if err != nil {
		log.Printf("Rejected face sample for %s: %v", name, err)
		return false
	}

	g.mu.Lock()
	g.names = append(g.names, name)
	g.embeddings = append(g.embeddings, det.Embedding)
	g.mu.Unlock()

	log.Printf("Added face embedding for %s", name)
	return true
}

// Match finds the faces in frame and labels each with its nearest gallery
// entry. An empty gallery returns no matches without running detection.
// Detection failures are logged and reported as no faces.
func (g *Gallery) Match(frame *gocv.Mat) []Match {
	if frame == nil || frame.Empty() {
		return nil
	}

	g.mu.RLock()
	names := g.names
	embeddings := g.embeddings
	g.mu.RUnlock()

	if len(embeddings) == 0 {
		return nil
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(*frame, &small, image.Point{}, g.cfg.Downsample, g.cfg.Downsample, gocv.InterpolationLinear)

	dets, err := g.rec.Recognize(&small)
	if err != nil {
		log.Printf("Error in face recognition: %v", err)
		return nil
	}

	scale := 1 / g.cfg.Downsample
	matches := make([]Match, len(dets))
	for i, det := range dets {
		best, dist := nearest(embeddings, det.Embedding)
		name := face.Unknown
		if best >= 0 && dist < g.cfg.Threshold && g.cfg.Compare(embeddings[best], det.Embedding) {
			name = names[best]
		}
		matches[i] = Match{
			Box:      face.Scale(det.Box, scale),
			Name:     name,
			Distance: dist,
		}
	}
	return matches
}

// nearest returns the index and distance of the closest embedding, or -1 for an empty list.
func nearest(embeddings []face.Embedding, probe face.Embedding) (int, float64) {
	best, bestDist := -1, math.MaxFloat64
	for i, e := range embeddings {
		if d := face.Distance(e, probe); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// Len returns the number of stored embeddings.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.names)
}

// Count returns how many embeddings are stored for name.
func (g *Gallery) Count(name string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, existing := range g.names {
		if existing == name {
			n++
		}
	}
	return n
}

// Names returns each enrolled name once, in first-enrolled order.
func (g *Gallery) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, n := range g.names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Entries returns a copy of the (names, embeddings) pair list.
func (g *Gallery) Entries() ([]string, []face.Embedding) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.names...), append([]face.Embedding(nil), g.embeddings...)
}
