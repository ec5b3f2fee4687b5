package handtrack

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when reading from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera is a source of video frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// CameraConfig selects the capture device and format.
type CameraConfig struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultCameraConfig returns a 640x480 capture at 30 frames per second.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{Width: 640, Height: 480, FPS: 30}
}

// deviceCamera captures from a local video device through OpenCV.
type deviceCamera struct {
	config  CameraConfig
	capture *gocv.VideoCapture
	mu      sync.Mutex
}

// NewCamera creates a Camera for the configured device. The device is not
// opened until Open is called.
func NewCamera(config CameraConfig) Camera {
	defaults := DefaultCameraConfig()
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = defaults.Width, defaults.Height
	}
	if config.FPS <= 0 {
		config.FPS = defaults.FPS
	}
	return &deviceCamera{config: config}
}

func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return err
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	c.capture = capture
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

// BlankCamera produces empty black frames of a fixed size. It stands in for
// a device when the detector does not look at pixels, as in tests.
type BlankCamera struct {
	width, height int
	mu            sync.Mutex
	open          bool
}

// NewBlankCamera creates a BlankCamera producing width x height frames.
func NewBlankCamera(width, height int) *BlankCamera {
	return &BlankCamera{width: width, height: height}
}

func (c *BlankCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	return nil
}

func (c *BlankCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *BlankCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	mat := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *BlankCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
