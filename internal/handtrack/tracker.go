package handtrack

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/timeutil"
)

// Logf reports frame errors. Tests may replace it.
var Logf = log.Printf

// Tracker reads frames from a camera, detects hands, and produces pointer
// Inputs for the recognition engine.
type Tracker struct {
	camera   Camera
	detector Detector
	adapter  *Adapter
	builder  *pointer.Builder
	clock    timeutil.Clock
	interval time.Duration

	mu     sync.Mutex
	paused bool
}

// NewTracker creates a Tracker sampling camera at config.FPS.
func NewTracker(camera Camera, detector Detector, config AdapterConfig, clock timeutil.Clock) *Tracker {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if config.FPS <= 0 {
		config.FPS = DefaultCameraConfig().FPS
	}
	return &Tracker{
		camera:   camera,
		detector: detector,
		adapter:  NewAdapter(config),
		builder:  pointer.NewBuilder(),
		clock:    clock,
		interval: time.Second / time.Duration(config.FPS),
	}
}

// SetPaused stops or resumes frame processing. Pausing during a contact
// cancels the lifecycle on the next step.
func (t *Tracker) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
}

// Paused reports whether frame processing is paused.
func (t *Tracker) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Step processes one frame and returns the Inputs it produced.
func (t *Tracker) Step() ([]*pointer.Input, error) {
	ts := t.clock.Now().UnixMilli()

	if t.Paused() {
		return t.build(t.adapter.Reset(ts))
	}

	frame, err := t.camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	hands, err := t.detector.Detect(frame)
	frame.Close()
	if err != nil {
		return nil, fmt.Errorf("detect hands: %w", err)
	}

	events, err := t.adapter.Observe(hands, ts)
	if err != nil {
		return nil, err
	}
	return t.build(events)
}

func (t *Tracker) build(events []pointer.RawEvent) ([]*pointer.Input, error) {
	var inputs []*pointer.Input
	for _, ev := range events {
		in, err := t.builder.Build(ev)
		if err != nil {
			return inputs, err
		}
		if in != nil {
			inputs = append(inputs, in)
		}
	}
	return inputs, nil
}

// Run opens the camera and sends Inputs to out until ctx is done. Frame
// errors are logged and the frame is skipped. A contact held when ctx ends
// is not closed; the engine drops its state with the next lifecycle.
func (t *Tracker) Run(ctx context.Context, out chan<- *pointer.Input) error {
	if err := t.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer t.camera.Close()

	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	log.Printf("Hand tracking started (%s per frame)", t.interval)
	defer log.Println("Hand tracking stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			inputs, err := t.Step()
			if err != nil {
				Logf("handtrack: %v", err)
			}
			for _, in := range inputs {
				select {
				case out <- in:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Close releases the detector and the camera.
func (t *Tracker) Close() error {
	camErr := t.camera.Close()
	if err := t.detector.Close(); err != nil {
		return err
	}
	return camErr
}
