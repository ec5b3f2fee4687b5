package recognizer

import (
	"time"

	"github.com/ayusman/mudra/internal/compute"
	"github.com/ayusman/mudra/internal/pointer"
)

// TapOptions configures a Tap recognizer.
type TapOptions struct {
	Name                   string
	PointLength            int
	TapTimes               int           // taps required per emission
	WaitNextTapTime        time.Duration // max gap between taps of a sequence
	MaxDistance            float64       // max movement between touch-down and release
	MaxDistanceFromPrevTap float64       // max offset between consecutive taps
	MaxPressTime           time.Duration // touch-down to release must be shorter
}

// DefaultTapOptions returns the default single-tap configuration.
func DefaultTapOptions() TapOptions {
	return TapOptions{
		Name:                   string(FamilyTap),
		PointLength:            1,
		TapTimes:               1,
		WaitNextTapTime:        300 * time.Millisecond,
		MaxDistance:            2,
		MaxDistanceFromPrevTap: 9,
		MaxPressTime:           250 * time.Millisecond,
	}
}

// Tap counts quick touch-and-release sequences. It is judged only when all
// contacts are released and emits every TapTimes taps, with the running
// count attached as TapCount.
type Tap struct {
	Base
	opts TapOptions

	count       int
	prevPoint   pointer.Point
	prevTime    int64
	hasPrev     bool
	failTimeout Timer
}

// NewTap creates a Tap recognizer.
func NewTap(opts TapOptions) *Tap {
	if opts.TapTimes < 1 {
		opts.TapTimes = 1
	}
	t := &Tap{Base: newBase(opts.Name, FamilyTap), opts: opts}
	t.failTimeout.owner = &t.Base
	return t
}

func (t *Tap) ComputeFuncs() []compute.Factory {
	return []compute.Factory{compute.Distance, compute.MaxLength}
}

// TapCount returns the running tap count of the current sequence.
func (t *Tap) TapCount() int { return t.count }

func (t *Tap) Reset() {
	t.failTimeout.Cancel()
	t.resetCount()
	t.status = StatusPossible
}

func (t *Tap) Recognize(c compute.Computed, emit EmitFunc) {
	if c.Stage != pointer.StageEnd {
		return
	}

	t.status = StatusPossible
	if !t.test(&c) {
		t.failTimeout.Cancel()
		t.resetCount()
		t.status = StatusFailed
		return
	}

	t.failTimeout.Cancel()
	center := c.Center()
	if t.continues(center, c.Timestamp) {
		t.count++
	} else {
		t.count = 1
	}
	t.prevPoint, t.prevTime, t.hasPrev = center, c.Timestamp, true

	if t.count%t.opts.TapTimes == 0 {
		t.status = StatusRecognized
		c.TapCount = t.count
		emit(t.name, c)
		return
	}

	t.failTimeout.Arm(t.opts.WaitNextTapTime, func() {
		t.status = StatusFailed
		t.resetCount()
	})
}

// continues reports whether a tap at p and ts extends the current sequence.
func (t *Tap) continues(p pointer.Point, ts int64) bool {
	if !t.hasPrev {
		return true
	}
	if pointer.Distance(t.prevPoint, p) > t.opts.MaxDistanceFromPrevTap {
		return false
	}
	return ts-t.prevTime <= t.opts.WaitNextTapTime.Milliseconds()
}

func (t *Tap) test(c *compute.Computed) bool {
	var held int64
	if c.StartInput != nil {
		held = c.Timestamp - c.StartInput.Timestamp
	}
	return c.MaxPointLength == t.opts.PointLength &&
		c.PointLength == 0 &&
		c.Distance <= t.opts.MaxDistance &&
		held < t.opts.MaxPressTime.Milliseconds()
}

func (t *Tap) resetCount() {
	t.count = 0
	t.prevPoint = pointer.Point{}
	t.prevTime = 0
	t.hasPrev = false
}
