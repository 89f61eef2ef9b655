// Package enroll runs the guided face-capture loop that enrolls a new identity.
//
// A Session is single-slot: at most one identity is being enrolled at a time,
// and starting a new enrollment replaces whatever was in progress. While active,
// every frame is offered to the session; a face is captured at most once per
// capture interval until the sample quota is reached, at which point the
// gallery is persisted and the session completes.
package enroll

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/wavein/internal/face"
	"github.com/ayusman/wavein/internal/overlay"
	"gocv.io/x/gocv"
)

// Defaults for a session.
const (
	DefaultMaxSamples = 10
	DefaultInterval   = 2 * time.Second
)

var (
	// ErrInactive is returned by operations that need an active session.
	ErrInactive = errors.New("no enrollment in progress")
	// ErrEmptyName is returned when enrollment is started without a name.
	ErrEmptyName = errors.New("enrollment name is empty")
)

// State is the lifecycle position of a session.
type State int

const (
	Inactive State = iota
	Active
	Complete
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Complete:
		return "complete"
	default:
		return "inactive"
	}
}

// Outcome describes what a single offered frame did.
type Outcome int

const (
	// Idle means no enrollment was active and the frame was ignored.
	Idle Outcome = iota
	// NoFace means no face was found in the frame.
	NoFace
	// Waiting means a face was found but the capture interval has not elapsed.
	Waiting
	// Rejected means a capture was attempted and the gallery refused the sample.
	Rejected
	// Captured means a sample was accepted.
	Captured
	// Finished means a sample was accepted and it completed the quota.
	Finished
)

// Gallery is the part of the identity gallery enrollment writes to.
type Gallery interface {
	Add(sample *gocv.Mat, name string) bool
	Persist() error
}

// Config controls quota, pacing, and where sample images are kept.
type Config struct {
	MaxSamples int
	Interval   time.Duration
	// SamplesDir receives a JPEG of every capture attempt when non-empty.
	SamplesDir string
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// Status is a snapshot of the session, shaped for the registration status API.
type Status struct {
	Active           bool      `json:"active"`
	Name             string    `json:"name"`
	SamplesCollected int       `json:"samples_collected"`
	MaxSamples       int       `json:"max_samples"`
	Complete         bool      `json:"registration_complete"`
	LastCapture      time.Time `json:"last_capture,omitempty"`
}

// Result is returned for each offered frame.
type Result struct {
	Outcome Outcome
	Status  Status
	// Box is the face used for feedback, empty when none was found.
	Box image.Rectangle
}

// Session is the single enrollment slot.
type Session struct {
	mu          sync.Mutex
	state       State
	name        string
	collected   int
	lastCapture time.Time
	lastAttempt time.Time

	gallery    Gallery
	rec        face.Recognizer
	cfg        Config
	onComplete func(Status)
}

// NewSession creates an inactive session. rec locates faces in offered frames;
// accepted crops are handed to gallery.
func NewSession(gallery Gallery, rec face.Recognizer, cfg Config) *Session {
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		gallery: gallery,
		rec:     rec,
		cfg:     cfg,
	}
}

// OnComplete registers fn to run after a session completes and the gallery has
// been persisted. fn runs on the caller's goroutine.
func (s *Session) OnComplete(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// Start begins enrolling name, replacing any session already in progress.
func (s *Session) Start(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Active && s.name != name {
		log.Printf("Enrollment for %s replaced by %s after %d samples", s.name, name, s.collected)
	}

	now := s.cfg.Now()
	s.state = Active
	s.name = name
	s.collected = 0
	s.lastCapture = now
	s.lastAttempt = now

	log.Printf("Enrollment started for %s (%d samples)", name, s.cfg.MaxSamples)
	return nil
}

// Ensure starts enrolling name unless the current session, active or
// complete, is already for name.
func (s *Session) Ensure(name string) error {
	s.mu.Lock()
	current := s.state != Inactive && s.name == strings.TrimSpace(name)
	s.mu.Unlock()

	if current {
		return nil
	}
	return s.Start(name)
}

// Active reports whether an enrollment is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Active
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		Active:           s.state == Active,
		Name:             s.name,
		SamplesCollected: s.collected,
		MaxSamples:       s.cfg.MaxSamples,
		Complete:         s.state == Complete,
		LastCapture:      s.lastCapture,
	}
}

// OfferFrame runs one enrollment step on frame and annotates it with progress.
// Frames offered while no session is active are left untouched.
func (s *Session) OfferFrame(frame *gocv.Mat) Result {
	s.mu.Lock()

	if s.state != Active || frame == nil || frame.Empty() {
		res := Result{Outcome: Idle, Status: s.statusLocked()}
		s.mu.Unlock()
		return res
	}

	res := s.step(frame)
	completed := res.Outcome == Finished
	if completed {
		s.finishLocked()
	}
	res.Status = s.statusLocked()
	fn := s.onComplete
	s.mu.Unlock()

	annotate(frame, res)

	if completed && fn != nil {
		fn(res.Status)
	}
	return res
}

// step locates the face and, when due, attempts a capture. Called with mu held.
func (s *Session) step(frame *gocv.Mat) Result {
	dets, err := s.rec.Recognize(frame)
	if err != nil {
		log.Printf("Error detecting face for enrollment: %v", err)
		return Result{Outcome: NoFace}
	}
	if len(dets) == 0 {
		return Result{Outcome: NoFace}
	}

	box := overlay.Clip(frame, dets[0].Box)
	res := Result{Outcome: Waiting, Box: box}

	now := s.cfg.Now()
	if now.Sub(s.lastAttempt) <= s.cfg.Interval {
		return res
	}
	s.lastAttempt = now

	if box.Empty() {
		res.Outcome = Rejected
		return res
	}

	crop := frame.Region(box)
	sample := crop.Clone()
	crop.Close()
	defer sample.Close()

	s.saveSample(&sample)

	if !s.gallery.Add(&sample, s.name) {
		res.Outcome = Rejected
		return res
	}

	s.collected++
	s.lastCapture = now
	log.Printf("Captured sample %d/%d for %s", s.collected, s.cfg.MaxSamples, s.name)

	res.Outcome = Captured
	if s.collected >= s.cfg.MaxSamples {
		res.Outcome = Finished
	}
	return res
}

// saveSample writes the crop to <SamplesDir>/<name>_<n>.jpg.
func (s *Session) saveSample(sample *gocv.Mat) {
	if s.cfg.SamplesDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.SamplesDir, 0755); err != nil {
		log.Printf("Error creating samples dir: %v", err)
		return
	}
	path := filepath.Join(s.cfg.SamplesDir, SampleFileName(s.name, s.collected))
	if !gocv.IMWrite(path, *sample) {
		log.Printf("Error writing face sample %s", path)
	}
}

// SampleFileName returns the file name used for sample n of name.
func SampleFileName(name string, n int) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("%s_%d.jpg", safe, n)
}

// ManualCapture counts one sample without detection, applying the same quota rule.
// A completed session is reported as is.
func (s *Session) ManualCapture() (Status, error) {
	s.mu.Lock()
	if s.state == Complete {
		st := s.statusLocked()
		s.mu.Unlock()
		return st, nil
	}
	if s.state != Active {
		st := s.statusLocked()
		s.mu.Unlock()
		return st, ErrInactive
	}

	s.collected++
	s.lastCapture = s.cfg.Now()
	completed := s.collected >= s.cfg.MaxSamples
	if completed {
		s.finishLocked()
	}
	st := s.statusLocked()
	fn := s.onComplete
	s.mu.Unlock()

	if completed && fn != nil {
		fn(st)
	}
	return st, nil
}

// Complete ends the session regardless of quota and persists the gallery.
// Calling it again, or with no session active, only persists again.
func (s *Session) Complete() error {
	s.mu.Lock()
	wasActive := s.state == Active
	if wasActive {
		s.state = Complete
		log.Printf("Enrollment for %s completed manually with %d samples", s.name, s.collected)
	}
	st := s.statusLocked()
	fn := s.onComplete
	s.mu.Unlock()

	if err := s.gallery.Persist(); err != nil {
		return fmt.Errorf("persist gallery: %w", err)
	}
	if wasActive && fn != nil {
		fn(st)
	}
	return nil
}

// finishLocked moves to Complete and persists once. Called with mu held.
func (s *Session) finishLocked() {
	s.state = Complete
	log.Printf("Enrollment complete for %s", s.name)
	if err := s.gallery.Persist(); err != nil {
		log.Printf("Error saving face gallery: %v", err)
	}
}

func annotate(frame *gocv.Mat, res Result) {
	st := res.Status
	overlay.Text(frame, "Registration: "+st.Name, image.Pt(10, 30), 0.7, overlay.Yellow, 2)
	overlay.Text(frame, fmt.Sprintf("Samples: %d/%d", st.SamplesCollected, st.MaxSamples), image.Pt(10, 60), 0.7, overlay.Yellow, 2)
	overlay.Text(frame, "Keep face centered and look straight", image.Pt(10, 90), 0.5, overlay.Yellow, 1)

	switch res.Outcome {
	case NoFace:
		overlay.Text(frame, "No face detected - please position face in frame", image.Pt(10, 120), 0.5, overlay.Red, 1)
	case Finished:
		overlay.Box(frame, res.Box, "", overlay.Green)
		overlay.Text(frame, "REGISTRATION COMPLETE!", image.Pt(50, 120), 1, overlay.Green, 2)
	default:
		overlay.Box(frame, res.Box, "", overlay.Green)
	}
}
