// Package capture supplies video frames from a camera, file, or stream URL.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default source settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEndOfStream is returned when the source cannot supply another frame.
	// Callers treat it as the stream ending, not as a failure.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera is a source of successive frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame; the caller closes it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// SourceConfig selects and sizes the capture source.
type SourceConfig struct {
	// Device is a camera index ("0") or a file path / stream URL.
	Device string
	Width  int
	Height int
}

// cameraImpl captures frames through OpenCV.
type cameraImpl struct {
	cfg     SourceConfig
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a source for the camera with the given index.
func NewCamera(deviceID int) Camera {
	return NewSource(SourceConfig{Device: strconv.Itoa(deviceID)})
}

// NewSource creates a source from cfg. Zero sizes use 640x480.
func NewSource(cfg SourceConfig) Camera {
	if cfg.Device == "" {
		cfg.Device = "0"
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	return &cameraImpl{
		cfg: cfg,
		fps: DefaultFPS,
	}
}

// Open starts capturing. A numeric device opens a camera; anything else is
// handed to OpenCV as a file or URL.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var device interface{} = c.cfg.Device
	if id, err := strconv.Atoi(c.cfg.Device); err == nil {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("open capture %q: %w", c.cfg.Device, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close stops capturing and releases the device.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads one frame. A failed or empty read is ErrEndOfStream.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}

	return &mat, nil
}

// SetFPS sets the capture rate. Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current capture rate.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen reports whether the source is capturing.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
