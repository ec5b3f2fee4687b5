package recognizer

import (
	"math"

	"github.com/ayusman/mudra/internal/compute"
	"github.com/ayusman/mudra/internal/pointer"
)

// recognizeMove runs the shared move-like procedure: test, transition, then
// emit the bare name while active and name+status on every phase change.
// after is invoked while the gesture is active, for family-specific emissions.
func (b *Base) recognizeMove(c compute.Computed, emit EmitFunc, test func(c *compute.Computed) bool, after func(c compute.Computed, emit EmitFunc)) {
	if c.IsLifecycleStart() && b.status != StatusPossible {
		b.status = StatusPossible
	}
	if b.status.IsTerminal() {
		return
	}

	prev := b.status
	b.status = flow(test(&c), prev, c.Stage)

	if b.status.IsActive() {
		emit(b.name, c)
		if after != nil {
			after(c, emit)
		}
	}
	if b.status.IsActive() || (b.status != prev && (b.status == StatusEnd || b.status == StatusCancelled)) {
		emit(b.name+string(b.status), c)
	}
}

// PanOptions configures a Pan recognizer.
type PanOptions struct {
	Name        string
	PointLength int
	Threshold   float64 // minimum distance in px before the pan starts
}

// DefaultPanOptions returns the default pan configuration.
func DefaultPanOptions() PanOptions {
	return PanOptions{Name: string(FamilyPan), PointLength: 1, Threshold: 10}
}

// Pan recognizes a drag of PointLength contacts.
type Pan struct {
	Base
	opts PanOptions
}

// NewPan creates a Pan recognizer.
func NewPan(opts PanOptions) *Pan {
	return &Pan{Base: newBase(opts.Name, FamilyPan), opts: opts}
}

func (p *Pan) ComputeFuncs() []compute.Factory {
	return []compute.Factory{compute.Distance, compute.Velocity, compute.Delta}
}

func (p *Pan) Reset() { p.status = StatusPossible }

func (p *Pan) Recognize(c compute.Computed, emit EmitFunc) {
	p.recognizeMove(c, emit, p.test, func(c compute.Computed, emit EmitFunc) {
		if c.Direction != compute.DirectionNone {
			emit(p.name+string(c.Direction), c)
		}
	})
}

func (p *Pan) test(c *compute.Computed) bool {
	if contactCount(c) != p.opts.PointLength {
		return false
	}
	return p.status.IsActive() || c.Distance >= p.opts.Threshold
}

// PinchOptions configures a Pinch recognizer.
type PinchOptions struct {
	Name        string
	PointLength int
	Threshold   float64 // minimum |scale-1| before the pinch starts
}

// DefaultPinchOptions returns the default pinch configuration.
func DefaultPinchOptions() PinchOptions {
	return PinchOptions{Name: string(FamilyPinch), PointLength: 2}
}

// Pinch recognizes two or more contacts moving toward or away from each other.
type Pinch struct {
	Base
	opts PinchOptions
}

// NewPinch creates a Pinch recognizer.
func NewPinch(opts PinchOptions) *Pinch {
	return &Pinch{Base: newBase(opts.Name, FamilyPinch), opts: opts}
}

func (p *Pinch) ComputeFuncs() []compute.Factory {
	return []compute.Factory{compute.Scale}
}

func (p *Pinch) Reset() { p.status = StatusPossible }

func (p *Pinch) Recognize(c compute.Computed, emit EmitFunc) {
	p.recognizeMove(c, emit, p.test, func(c compute.Computed, emit EmitFunc) {
		switch {
		case c.DeltaScale > 1:
			emit(p.name+"out", c)
		case c.DeltaScale < 1:
			emit(p.name+"in", c)
		}
	})
}

func (p *Pinch) test(c *compute.Computed) bool {
	if contactCount(c) != p.opts.PointLength {
		return false
	}
	return p.status.IsActive() || math.Abs(c.Scale-1) > p.opts.Threshold
}

// RotateOptions configures a Rotate recognizer.
type RotateOptions struct {
	Name        string
	PointLength int
	Threshold   float64 // minimum rotation in degrees before the gesture starts
}

// DefaultRotateOptions returns the default rotate configuration.
func DefaultRotateOptions() RotateOptions {
	return RotateOptions{Name: string(FamilyRotate), PointLength: 2}
}

// Rotate recognizes two contacts turning around their center.
type Rotate struct {
	Base
	opts RotateOptions
}

// NewRotate creates a Rotate recognizer.
func NewRotate(opts RotateOptions) *Rotate {
	return &Rotate{Base: newBase(opts.Name, FamilyRotate), opts: opts}
}

func (r *Rotate) ComputeFuncs() []compute.Factory {
	return []compute.Factory{compute.Angle}
}

func (r *Rotate) Reset() { r.status = StatusPossible }

func (r *Rotate) Recognize(c compute.Computed, emit EmitFunc) {
	r.recognizeMove(c, emit, r.test, nil)
}

func (r *Rotate) test(c *compute.Computed) bool {
	if contactCount(c) != r.opts.PointLength {
		return false
	}
	return r.status.IsActive() || math.Abs(c.Angle) > r.opts.Threshold
}

// SwipeOptions configures a Swipe recognizer.
type SwipeOptions struct {
	Name        string
	PointLength int
	Threshold   float64 // minimum distance in px
	Velocity    float64 // minimum sampled velocity in px/ms
}

// DefaultSwipeOptions returns the default swipe configuration.
func DefaultSwipeOptions() SwipeOptions {
	return SwipeOptions{Name: string(FamilySwipe), PointLength: 1, Threshold: 10, Velocity: 0.3}
}

// Swipe recognizes a fast flick. It is judged once, when the contacts are
// released, from the sampled velocity of the final movement.
type Swipe struct {
	Base
	opts SwipeOptions
}

// NewSwipe creates a Swipe recognizer.
func NewSwipe(opts SwipeOptions) *Swipe {
	return &Swipe{Base: newBase(opts.Name, FamilySwipe), opts: opts}
}

func (s *Swipe) ComputeFuncs() []compute.Factory {
	return []compute.Factory{compute.Distance, compute.Velocity, compute.MaxLength}
}

func (s *Swipe) Reset() { s.status = StatusPossible }

func (s *Swipe) Recognize(c compute.Computed, emit EmitFunc) {
	if c.IsLifecycleStart() {
		s.status = StatusPossible
	}
	if c.Stage != pointer.StageEnd || s.status != StatusPossible {
		return
	}

	if !s.test(&c) {
		s.status = StatusFailed
		return
	}
	s.status = StatusRecognized
	emit(s.name, c)
	emit(s.name+string(c.Direction), c)
}

func (s *Swipe) test(c *compute.Computed) bool {
	return contactCount(c) == s.opts.PointLength &&
		c.MaxPointLength == s.opts.PointLength &&
		c.Distance > s.opts.Threshold &&
		c.Velocity > s.opts.Velocity &&
		c.Direction != compute.DirectionNone
}
