package compute

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/pointer"
)

// DefaultInterval is the minimum time between two velocity refreshes.
const DefaultInterval = 25 * time.Millisecond

// ErrNonMonotonicTime is returned when an input is older than the sample
// the velocity was last refreshed from.
var ErrNonMonotonicTime = errors.New("input timestamp went backwards")

// Computer produces a group of metrics for one tracking context. It may keep
// the minimal rolling state it needs between samples; Reset clears that state
// when a new lifecycle begins.
type Computer interface {
	Compute(in *pointer.Input, out *Computed) error
	Reset()
}

// Factory creates Computers. Factories are deduplicated by ID: recognizers
// that request the same ID share a single Computer.
type Factory struct {
	ID  string
	New func() Computer
}

// Built-in metric factories.
var (
	Distance  = Factory{ID: "distance", New: func() Computer { return &distanceComputer{} }}
	MaxLength = Factory{ID: "maxLength", New: func() Computer { return &maxLengthComputer{} }}
	Velocity  = VelocityWith(DefaultInterval, 4)
	Delta     = Factory{ID: "delta", New: func() Computer { return &deltaComputer{} }}
	Scale     = Factory{ID: "scale", New: func() Computer { return &scaleComputer{} }}
	Angle     = Factory{ID: "angle", New: func() Computer { return &angleComputer{} }}
)

// VelocityWith returns a velocity and direction factory that refreshes at
// most once per interval and buckets directions into 4 or 8 directions.
func VelocityWith(interval time.Duration, buckets int) Factory {
	if buckets != 8 {
		buckets = 4
	}
	return Factory{
		ID: fmt.Sprintf("velocity/%s/%d", interval, buckets),
		New: func() Computer {
			return &velocityComputer{interval: interval.Milliseconds(), buckets: buckets}
		},
	}
}

type distanceComputer struct{}

func (distanceComputer) Reset() {}

func (distanceComputer) Compute(in *pointer.Input, out *Computed) error {
	start := in.StartInput
	if start == nil {
		start = in
	}
	out.DisplacementX = in.X - start.X
	out.DisplacementY = in.Y - start.Y
	out.Distance = pointer.Length(out.DisplacementX, out.DisplacementY)
	return nil
}

type maxLengthComputer struct {
	max int
}

func (c *maxLengthComputer) Reset() { c.max = 0 }

func (c *maxLengthComputer) Compute(in *pointer.Input, out *Computed) error {
	if in.PointLength > c.max {
		c.max = in.PointLength
	}
	out.MaxPointLength = c.max
	return nil
}

// velocityComputer samples velocity and direction at a fixed interval so a
// decelerating swipe keeps the speed it had before its final sample.
type velocityComputer struct {
	interval int64
	buckets  int

	hasPrev   bool
	prevTime  int64
	prevX     float64
	prevY     float64
	velocityX float64
	velocityY float64
	direction Direction
}

func (c *velocityComputer) Reset() {
	c.hasPrev = false
	c.velocityX, c.velocityY = 0, 0
	c.direction = DirectionNone
}

func (c *velocityComputer) Compute(in *pointer.Input, out *Computed) error {
	if !c.hasPrev {
		c.hasPrev = true
		c.prevTime, c.prevX, c.prevY = in.Timestamp, in.X, in.Y
	}

	dt := in.Timestamp - c.prevTime
	if dt < 0 {
		return fmt.Errorf("%w: %dms after %dms", ErrNonMonotonicTime, in.Timestamp, c.prevTime)
	}

	if in.Stage == pointer.StageCancel || dt > c.interval || c.direction == DirectionNone {
		dx := in.X - c.prevX
		dy := in.Y - c.prevY
		if dt > 0 {
			c.velocityX = roundVelocity(dx / float64(dt))
			c.velocityY = roundVelocity(dy / float64(dt))
		} else {
			c.velocityX, c.velocityY = 0, 0
		}
		if d := DirectionOf(dx, dy, c.buckets); d != DirectionNone {
			c.direction = d
		}
		c.prevTime, c.prevX, c.prevY = in.Timestamp, in.X, in.Y
	}

	out.VelocityX = c.velocityX
	out.VelocityY = c.velocityY
	out.Velocity = math.Max(c.velocityX, c.velocityY)
	out.Direction = c.direction
	return nil
}

type deltaComputer struct{}

func (deltaComputer) Reset() {}

func (deltaComputer) Compute(in *pointer.Input, out *Computed) error {
	if in.PrevInput == nil {
		out.DeltaX, out.DeltaY = 0, 0
		return nil
	}
	out.DeltaX = in.X - in.PrevInput.X
	out.DeltaY = in.Y - in.PrevInput.Y
	return nil
}

// multiState tracks the previous multi-point figure of the current
// StartMultiInput, so deltas restart when the point count changes.
type multiState struct {
	startID string
	prev    float64
}

func (s *multiState) reset(initial float64) {
	s.startID = ""
	s.prev = initial
}

// previous returns the last figure for in's StartMultiInput, or initial when
// the reference sample changed.
func (s *multiState) previous(in *pointer.Input, initial float64) float64 {
	if in.StartMultiInput.ID != s.startID {
		s.startID = in.StartMultiInput.ID
		s.prev = initial
	}
	return s.prev
}

// figure returns the points of the multi-point figure a sample describes. At
// End and Cancel the contacts are gone, so the last active figure is used.
func figure(in *pointer.Input) []pointer.Point {
	if (in.Stage == pointer.StageEnd || in.Stage == pointer.StageCancel) && in.PrevInput != nil {
		return in.PrevInput.Points
	}
	return in.Points
}

type scaleComputer struct {
	state multiState
}

func (c *scaleComputer) Reset() { c.state.reset(1) }

func (c *scaleComputer) Compute(in *pointer.Input, out *Computed) error {
	out.Scale, out.DeltaScale = 1, 1
	points := figure(in)
	if in.StartMultiInput == nil || len(points) < 2 {
		return nil
	}
	v0, ok0 := pointer.Vector(in.StartMultiInput.Points)
	v, ok := pointer.Vector(points)
	start := pointer.Length(v0.X, v0.Y)
	if !ok0 || !ok || start == 0 {
		return nil
	}

	prev := c.state.previous(in, 1)
	out.Scale = pointer.Length(v.X, v.Y) / start
	if prev != 0 {
		out.DeltaScale = out.Scale / prev
	}
	c.state.prev = out.Scale
	return nil
}

type angleComputer struct {
	state multiState
}

func (c *angleComputer) Reset() { c.state.reset(0) }

func (c *angleComputer) Compute(in *pointer.Input, out *Computed) error {
	out.Angle, out.DeltaAngle = 0, 0
	points := figure(in)
	if in.StartMultiInput == nil || len(points) < 2 {
		return nil
	}
	v0, ok0 := pointer.Vector(in.StartMultiInput.Points)
	v, ok := pointer.Vector(points)
	if !ok0 || !ok {
		return nil
	}

	prev := c.state.previous(in, 0)
	out.Angle = pointer.Angle(v0, v)
	out.DeltaAngle = out.Angle - prev
	c.state.prev = out.Angle
	return nil
}
