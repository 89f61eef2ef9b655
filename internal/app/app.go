// Package app runs the attendance frame loop and connects it to the ledger,
// the enrollment slot, plugins, and live listeners.
package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/wavein/internal/capture"
	"github.com/ayusman/wavein/internal/plugin"
	"gocv.io/x/gocv"
)

// subscriberBuffer is how many events a slow listener may fall behind before
// events are dropped for it.
const subscriberBuffer = 16

// Config holds the collaborators of an App.
type Config struct {
	Camera   capture.Camera
	Pipeline *Pipeline
	// Motion and Pacer switch between idle and active frame rates; either may be nil.
	Motion     *capture.MotionDetector
	Pacer      *capture.Pacer
	Dispatcher *plugin.Dispatcher
	Now        func() time.Time
}

// App owns the frame loop.
type App struct {
	camera     capture.Camera
	pipeline   *Pipeline
	motion     *capture.MotionDetector
	pacer      *capture.Pacer
	dispatcher *plugin.Dispatcher
	now        func() time.Time

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	latest  []byte

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New creates an App and subscribes it to the pipeline's events.
func New(cfg Config) *App {
	if cfg.Pacer == nil {
		cfg.Pacer = capture.NewPacer()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &App{
		camera:     cfg.Camera,
		pipeline:   cfg.Pipeline,
		motion:     cfg.Motion,
		pacer:      cfg.Pacer,
		dispatcher: cfg.Dispatcher,
		now:        cfg.Now,
		enabled:    true,
		subs:       make(map[chan Event]struct{}),
	}
	if a.pipeline != nil {
		a.pipeline.OnEvent(a.Publish)
	}
	return a
}

// SetEnabled pauses or resumes frame processing. Frames are still read while paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Pipeline returns the frame pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

// Start opens the camera and runs the loop in the background.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.pacer.FPS())

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	log.Println("Frame loop started")
	return nil
}

// Stop halts the loop and closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if a.motion != nil {
		a.motion.Close()
	}
	log.Println("Frame loop stopped")
}

// Done is closed when the loop exits, either from Stop or at end of stream.
// It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.doneCh
}

func (a *App) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(a.pacer.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			_, err := a.Step()
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Println("Frame source ended")
				return
			}
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}
			if fps := a.pacer.FPS(); fps != a.camera.FPS() {
				a.camera.SetFPS(fps)
				ticker.Reset(a.pacer.Interval())
			}
		}
	}
}

// Step reads and processes one frame. It returns capture.ErrEndOfStream when
// the source has no more frames.
func (a *App) Step() (Result, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return Result{}, err
	}
	defer frame.Close()

	if a.motion != nil {
		motion, _ := a.motion.Detect(frame)
		if fps, changed := a.pacer.Observe(motion, a.now()); changed {
			log.Printf("Switched to %d fps", fps)
		}
	}

	var res Result
	if a.IsEnabled() && a.pipeline != nil {
		res = a.pipeline.Process(frame)
	}
	a.storeFrame(frame)
	return res, nil
}

func (a *App) storeFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)
	a.mu.Lock()
	a.latest = data
	a.mu.Unlock()
}

// LatestJPEG returns the most recent annotated frame, or nil before the first.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Subscribe returns a channel of events and a function that ends the subscription.
func (a *App) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, ch)
			a.subMu.Unlock()
			close(ch)
		})
	}
}

// Publish sends ev to every subscriber and to plugins bound to its type.
// A subscriber whose buffer is full misses the event.
func (a *App) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = a.now()
	}

	a.subMu.Lock()
	for ch := range a.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	a.subMu.Unlock()

	if a.dispatcher != nil && (ev.Type == EventAttendanceMarked || ev.Type == EventEnrollmentCompleted) {
		a.dispatcher.Dispatch(ev.Type, ev.Payload)
	}
}
