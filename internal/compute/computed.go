// Package compute derives kinematic metrics from pointer inputs and merges
// them, once per sample, into the Computed record shared by all recognizers.
package compute

import (
	"math"

	"github.com/ayusman/mudra/internal/pointer"
)

// Direction is a compass bucket of a movement.
type Direction string

// Directions. The diagonal buckets are only produced in 8-bucket mode.
const (
	DirectionNone      Direction = ""
	DirectionLeft      Direction = "left"
	DirectionRight     Direction = "right"
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
	DirectionUpLeft    Direction = "upleft"
	DirectionUpRight   Direction = "upright"
	DirectionDownLeft  Direction = "downleft"
	DirectionDownRight Direction = "downright"
)

// Computed is an Input augmented with derived metrics. A Computed value is
// built once per sample and handed to recognizers by value.
type Computed struct {
	pointer.Input

	// Cumulative displacement from the lifecycle's START sample.
	Distance      float64 `json:"distance"`
	DisplacementX float64 `json:"displacementX"`
	DisplacementY float64 `json:"displacementY"`

	// High-water mark of simultaneous points in this lifecycle.
	MaxPointLength int `json:"maxPointLength"`

	// Sampled velocity in px/ms and its direction.
	Velocity  float64   `json:"velocity"`
	VelocityX float64   `json:"velocityX"`
	VelocityY float64   `json:"velocityY"`
	Direction Direction `json:"direction,omitempty"`

	// Frame-to-frame movement of the center.
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`

	// Multi-point figures relative to the first multi-point sample.
	Scale      float64 `json:"scale"`
	DeltaScale float64 `json:"deltaScale"`
	Angle      float64 `json:"angle"`
	DeltaAngle float64 `json:"deltaAngle"`

	// Running figures attached by a recognizer to its own emissions.
	TapCount int `json:"tapCount,omitempty"`
}

// Clone returns a copy whose point slices are not shared with c.
func (c Computed) Clone() Computed {
	c.Points = pointer.ClonePoints(c.Points)
	c.ChangedPoints = pointer.ClonePoints(c.ChangedPoints)
	return c
}

// DirectionOf buckets a movement (dx, dy) into a compass direction.
// buckets is 4 or 8; any other value is treated as 4. Screen coordinates
// are assumed, so positive dy points down.
func DirectionOf(dx, dy float64, buckets int) Direction {
	if dx == 0 && dy == 0 {
		return DirectionNone
	}

	if buckets == 8 {
		deg := math.Atan2(dy, dx) * 180 / math.Pi
		sector := int(math.Round(deg / 45))
		sector = ((sector % 8) + 8) % 8
		return [8]Direction{
			DirectionRight,
			DirectionDownRight,
			DirectionDown,
			DirectionDownLeft,
			DirectionLeft,
			DirectionUpLeft,
			DirectionUp,
			DirectionUpRight,
		}[sector]
	}

	if math.Abs(dx) >= math.Abs(dy) {
		if dx > 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if dy > 0 {
		return DirectionDown
	}
	return DirectionUp
}

// roundVelocity rounds a speed to two decimals.
func roundVelocity(v float64) float64 {
	return math.Round(math.Abs(v)*100) / 100
}
