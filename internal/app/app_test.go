package app

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/wavein/internal/capture"
	"gocv.io/x/gocv"
)

func mockFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = newFrame(t)
	}
	return frames
}

func TestApp_Step(t *testing.T) {
	f := newPipelineFixture(known("Alice"))
	cam := capture.NewMockCamera(mockFrames(t, 2), false)
	a := New(Config{Camera: cam, Pipeline: f.p, Now: f.clock.Now})

	events, cancel := a.Subscribe()
	defer cancel()

	if err := cam.Open(); err != nil {
		t.Fatal(err)
	}
	res, err := a.Step()
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !res.Marked {
		t.Errorf("Step() = %+v, want a mark", res)
	}
	if len(a.LatestJPEG()) == 0 {
		t.Error("LatestJPEG() should hold the processed frame")
	}

	select {
	case ev := <-events:
		if ev.Type != EventAttendanceMarked {
			t.Errorf("event type = %q", ev.Type)
		}
	default:
		t.Error("expected a published mark event")
	}

	a.Step()
	if _, err := a.Step(); !errors.Is(err, capture.ErrEndOfStream) {
		t.Errorf("Step() past the last frame error = %v, want ErrEndOfStream", err)
	}
}

func TestApp_Disabled(t *testing.T) {
	f := newPipelineFixture(known("Alice"))
	cam := capture.NewMockCamera(mockFrames(t, 1), true)
	a := New(Config{Camera: cam, Pipeline: f.p})
	cam.Open()

	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Fatal("IsEnabled() = true after SetEnabled(false)")
	}
	if _, err := a.Step(); err != nil {
		t.Fatal(err)
	}
	if f.matcher.calls != 0 {
		t.Error("disabled app should not process frames")
	}
	if len(a.LatestJPEG()) == 0 {
		t.Error("disabled app should still publish the raw frame")
	}
}

func TestApp_RunsUntilEndOfStream(t *testing.T) {
	f := newPipelineFixture()
	cam := capture.NewMockCamera(mockFrames(t, 3), false)
	pacer := capture.NewPacer()
	pacer.IdleFPS = 100
	a := New(Config{Camera: cam, Pipeline: f.p, Pacer: pacer})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop at end of stream")
	}
	a.Stop()

	if cam.Reads() != 3 {
		t.Errorf("Reads() = %d, want 3", cam.Reads())
	}
	if f.matcher.calls != 3 {
		t.Errorf("processed %d frames, want 3", f.matcher.calls)
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
}

func TestApp_Stop(t *testing.T) {
	f := newPipelineFixture()
	cam := capture.NewMockCamera(mockFrames(t, 1), true)
	a := New(Config{Camera: cam, Pipeline: f.p})

	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	done := a.Done()
	a.Stop()

	select {
	case <-done:
	default:
		t.Error("Done() should be closed once Stop returns")
	}
}

func TestApp_SubscribeCancel(t *testing.T) {
	a := New(Config{Camera: capture.NewMockCamera(nil, false)})

	ch, cancel := a.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	a.Publish(Event{Type: EventEnrollmentProgress})
}

func TestApp_PublishDropsForSlowSubscriber(t *testing.T) {
	a := New(Config{Camera: capture.NewMockCamera(nil, false)})
	ch, cancel := a.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		a.Publish(Event{Type: EventEnrollmentProgress})
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered %d events, want %d", len(ch), subscriberBuffer)
	}

	ev := <-ch
	if ev.At.IsZero() {
		t.Error("Publish should stamp events")
	}
}
