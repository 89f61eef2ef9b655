package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ayusman/wavein/internal/attendance"
	"github.com/ayusman/wavein/internal/capture"
	"github.com/ayusman/wavein/internal/config"
	"github.com/ayusman/wavein/internal/enroll"
	"github.com/ayusman/wavein/internal/face"
	"github.com/ayusman/wavein/internal/gallery"
	"github.com/ayusman/wavein/internal/gesture"
	"github.com/ayusman/wavein/internal/hand"
	"github.com/ayusman/wavein/internal/plugin"
	"github.com/ayusman/wavein/internal/store"
)

// Options replaces the hardware-backed collaborators. Zero fields are built
// from the configuration.
type Options struct {
	Recognizer face.Recognizer
	Hands      hand.Detector
	Camera     capture.Camera
	Now        func() time.Time
}

// Runtime is every long-lived component of a running wavein instance.
type Runtime struct {
	Config     *config.Config
	Store      *store.Store
	Recognizer face.Recognizer
	Hands      hand.Detector
	Gallery    *gallery.Gallery
	Ledger     *attendance.Ledger
	Session    *enroll.Session
	Plugins    *plugin.Manager
	Dispatcher *plugin.Dispatcher
	Pipeline   *Pipeline
	App        *App
}

// Open builds a Runtime from cfg. The camera is not opened until App.Start.
func Open(cfg *config.Config, opts Options) (*Runtime, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	label, err := gesture.ParseLabel(cfg.Mark.Gesture)
	if err != nil {
		return nil, fmt.Errorf("mark gesture: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Store: st}

	rt.Recognizer = opts.Recognizer
	if rt.Recognizer == nil {
		rec, err := face.NewDlibRecognizer(cfg.ModelsDir())
		if err != nil {
			log.Printf("Face models not available (%v), faces will not be recognised", err)
			rt.Recognizer = face.NewMockRecognizer()
		} else {
			rt.Recognizer = rec
		}
	}

	rt.Hands = opts.Hands
	if rt.Hands == nil {
		hcfg := hand.DefaultConfig()
		hcfg.ScriptPath = cfg.Hand.Script
		hcfg.MinConfidence = cfg.Hand.MinConfidence
		if mp, err := hand.NewMediaPipeDetector(hcfg); err == nil {
			rt.Hands = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			rt.Hands = hand.NewMockDetector()
		}
	}

	gcfg := gallery.DefaultConfig()
	gcfg.Threshold = cfg.Match.Threshold
	gcfg.Downsample = cfg.Match.Downsample
	gcfg.SampleSize = cfg.Match.SampleSize
	rt.Gallery = gallery.New(rt.Recognizer, gallery.NewFileStore(cfg.GalleryPath()), gcfg)
	rt.Gallery.Load()

	rt.Ledger, err = OpenLedger(cfg, st, opts.Now)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Session = enroll.NewSession(rt.Gallery, rt.Recognizer, enroll.Config{
		MaxSamples: cfg.Enroll.Samples,
		Interval:   cfg.Enroll.Interval,
		SamplesDir: cfg.SamplesDir(),
		Now:        opts.Now,
	})

	rt.Plugins = plugin.NewManager(cfg.PluginsDir())
	if err := rt.Plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	rt.Dispatcher = plugin.NewDispatcher(rt.Plugins, plugin.NewExecutor(cfg.Plugins.Timeout), NewHookBindings(st))

	rt.Pipeline = NewPipeline(rt.Gallery, rt.Hands, gesture.NewClassifier(), rt.Ledger, rt.Session, PipelineConfig{
		MarkGesture: label,
		Cooldown:    cfg.Mark.Cooldown,
		Now:         opts.Now,
	})

	camera := opts.Camera
	if camera == nil {
		camera = capture.NewSource(capture.SourceConfig{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
		})
	}
	pacer := capture.NewPacer()
	if cfg.Camera.IdleFPS > 0 {
		pacer.IdleFPS = cfg.Camera.IdleFPS
	}
	if cfg.Camera.ActiveFPS > 0 {
		pacer.ActiveFPS = cfg.Camera.ActiveFPS
	}
	rt.App = New(Config{
		Camera:     camera,
		Pipeline:   rt.Pipeline,
		Motion:     capture.NewMotionDetector(cfg.Camera.MotionThreshold),
		Pacer:      pacer,
		Dispatcher: rt.Dispatcher,
		Now:        opts.Now,
	})

	rt.Session.OnComplete(rt.enrollmentCompleted)
	return rt, nil
}

// OpenLedger returns the attendance ledger on the configured backend.
func OpenLedger(cfg *config.Config, st *store.Store, now func() time.Time) (*attendance.Ledger, error) {
	if cfg.Ledger.Backend == config.LedgerSQLite {
		return attendance.NewLedger(st.Attendance(), now), nil
	}
	csvStore := attendance.NewCSVStore(cfg.LedgerPath())
	if err := csvStore.Init(); err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	return attendance.NewLedger(csvStore, now), nil
}

func (rt *Runtime) enrollmentCompleted(status enroll.Status) {
	if _, err := rt.Store.Enrollments().Create(status.Name, status.SamplesCollected); err != nil {
		log.Printf("Failed to record enrollment for %s: %v", status.Name, err)
	}
	log.Printf("Enrollment complete for %s (%d samples)", status.Name, status.SamplesCollected)
	rt.App.Publish(Event{Type: EventEnrollmentCompleted, Payload: status})
}

// AddStudent adds st to the roster and starts enrolling their face.
func (rt *Runtime) AddStudent(st *store.Student) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return enroll.ErrEmptyName
	}
	if err := rt.Store.Students().Create(st); err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	return rt.Session.Start(st.Name)
}

// Close stops the loop and releases every component.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.App != nil {
		rt.App.Stop()
	}
	if rt.Dispatcher != nil {
		rt.Dispatcher.Close()
	}
	if rt.Hands != nil {
		errs = append(errs, rt.Hands.Close())
	}
	if rt.Recognizer != nil {
		errs = append(errs, rt.Recognizer.Close())
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	return errors.Join(errs...)
}
