package app

import (
	"image"
	"log"
	"sync"
	"time"

	"github.com/ayusman/wavein/internal/attendance"
	"github.com/ayusman/wavein/internal/enroll"
	"github.com/ayusman/wavein/internal/gallery"
	"github.com/ayusman/wavein/internal/gesture"
	"github.com/ayusman/wavein/internal/hand"
	"github.com/ayusman/wavein/internal/overlay"
	"github.com/ayusman/wavein/internal/plugin"
	"gocv.io/x/gocv"
)

// DefaultCooldown is the minimum time between two mark attempts.
const DefaultCooldown = 5 * time.Second

// Event types published by the pipeline.
const (
	EventAttendanceMarked    = plugin.EventAttendanceMarked
	EventEnrollmentProgress  = "enrollment.progress"
	EventEnrollmentCompleted = plugin.EventEnrollmentCompleted
)

// Event is something a frame caused that listeners may care about.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Mode is which branch of the pipeline handled a frame.
type Mode int

const (
	ModeAttendance Mode = iota
	ModeEnrollment
)

func (m Mode) String() string {
	if m == ModeEnrollment {
		return "enrollment"
	}
	return "attendance"
}

// Matcher identifies faces in a frame.
type Matcher interface {
	Match(frame *gocv.Mat) []gallery.Match
}

// Marker records attendance.
type Marker interface {
	Mark(name string) (bool, string, error)
}

// Enroller is the enrollment slot the pipeline defers to while it is active.
type Enroller interface {
	Active() bool
	OfferFrame(frame *gocv.Mat) enroll.Result
}

// PipelineConfig tunes the attendance branch.
type PipelineConfig struct {
	// MarkGesture is the pose that asks to be marked present.
	MarkGesture gesture.Label
	Cooldown    time.Duration
	Now         func() time.Time
}

// Result describes what one frame did.
type Result struct {
	Mode       Mode
	Matches    []gallery.Match
	Gesture    gesture.Label
	Attempted  bool
	Marked     bool
	Message    string
	Enrollment enroll.Result
}

// Pipeline processes frames one at a time, in arrival order.
type Pipeline struct {
	matcher    Matcher
	hands      hand.Detector
	classifier *gesture.Classifier
	ledger     Marker
	enroller   Enroller
	cfg        PipelineConfig

	mu          sync.Mutex
	lastAttempt time.Time
	lastName    string
	lastMarked  time.Time
	onEvent     func(Event)
}

// NewPipeline wires the identity, gesture, ledger and enrollment components.
// enroller may be nil when enrollment is not offered.
func NewPipeline(matcher Matcher, hands hand.Detector, classifier *gesture.Classifier, ledger Marker, enroller Enroller, cfg PipelineConfig) *Pipeline {
	if cfg.MarkGesture == gesture.None {
		cfg.MarkGesture = gesture.OpenHand
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if classifier == nil {
		classifier = gesture.NewClassifier()
	}
	return &Pipeline{
		matcher:    matcher,
		hands:      hands,
		classifier: classifier,
		ledger:     ledger,
		enroller:   enroller,
		cfg:        cfg,
	}
}

// OnEvent sets the listener for marks and enrollment progress. It is called
// synchronously from Process.
func (p *Pipeline) OnEvent(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEvent = fn
}

// LastMark returns the most recently marked name and when.
func (p *Pipeline) LastMark() (string, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastName, p.lastMarked
}

// Process runs one frame through enrollment or attendance and annotates it in place.
func (p *Pipeline) Process(frame *gocv.Mat) Result {
	if frame == nil || frame.Empty() {
		return Result{}
	}

	if p.enroller != nil && p.enroller.Active() {
		res := p.enroller.OfferFrame(frame)
		if res.Outcome == enroll.Captured || res.Outcome == enroll.Finished {
			p.emit(EventEnrollmentProgress, res.Status)
		}
		return Result{Mode: ModeEnrollment, Enrollment: res}
	}

	res := Result{Mode: ModeAttendance, Matches: p.matcher.Match(frame)}

	if p.hands != nil {
		hands, err := p.hands.Detect(frame)
		if err != nil {
			log.Printf("Error detecting hands: %v", err)
		}
		if lm := hand.First(hands); lm != nil {
			res.Gesture = p.classifier.Classify(lm)
		}
	}

	// Only the first face takes part in marking.
	if res.Gesture == p.cfg.MarkGesture && len(res.Matches) > 0 && res.Matches[0].Known() {
		p.tryMark(res.Matches[0].Name, &res)
	}

	p.annotate(frame, res)
	return res
}

func (p *Pipeline) tryMark(name string, res *Result) {
	now := p.cfg.Now()

	p.mu.Lock()
	if !p.lastAttempt.IsZero() && now.Sub(p.lastAttempt) < p.cfg.Cooldown {
		p.mu.Unlock()
		return
	}
	p.lastAttempt = now
	p.mu.Unlock()

	res.Attempted = true
	marked, msg, err := p.ledger.Mark(name)
	if err != nil {
		log.Printf("Error marking attendance for %s: %v", name, err)
	}
	res.Marked = marked
	res.Message = msg
	if !marked {
		return
	}

	p.mu.Lock()
	p.lastName = name
	p.lastMarked = now
	p.mu.Unlock()

	p.emit(EventAttendanceMarked, attendance.NewRecord(name, now))
}

func (p *Pipeline) emit(typ string, payload any) {
	p.mu.Lock()
	fn := p.onEvent
	p.mu.Unlock()
	if fn != nil {
		fn(Event{Type: typ, Payload: payload, At: p.cfg.Now()})
	}
}

func (p *Pipeline) annotate(frame *gocv.Mat, res Result) {
	for _, m := range res.Matches {
		c := overlay.Green
		if !m.Known() {
			c = overlay.Red
		}
		overlay.Box(frame, overlay.Clip(frame, m.Box), m.Name, c)
	}
	if res.Gesture != gesture.None {
		overlay.Text(frame, "Gesture: "+string(res.Gesture), image.Pt(10, 30), 1, overlay.Blue, 2)
	}

	p.mu.Lock()
	recent := !p.lastMarked.IsZero() && p.cfg.Now().Sub(p.lastMarked) < p.cfg.Cooldown
	p.mu.Unlock()
	if res.Marked || recent {
		overlay.Text(frame, "ATTENDANCE MARKED!", image.Pt(10, 70), 1, overlay.Green, 2)
	}
}
