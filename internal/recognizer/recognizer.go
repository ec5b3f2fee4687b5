// Package recognizer implements the gesture state machines: the move-like
// families (pan, pinch, rotate, swipe) sharing one transition table, and the
// discrete tap and press recognizers driven by timers.
package recognizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/compute"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/timeutil"
)

// ErrUnknownFamily is returned when a profile names no known gesture family.
var ErrUnknownFamily = errors.New("unknown gesture family")

// ErrNotAttached is the panic value, wrapped with the recognizer name, when a
// timer is armed on a recognizer that has no scheduler.
var ErrNotAttached = errors.New("recognizer timer armed before Attach")

// Family identifies a gesture family.
type Family string

const (
	FamilyPan    Family = "pan"
	FamilyPinch  Family = "pinch"
	FamilyRotate Family = "rotate"
	FamilySwipe  Family = "swipe"
	FamilyTap    Family = "tap"
	FamilyPress  Family = "press"
)

// Families lists every supported family.
var Families = []Family{FamilyPan, FamilyPinch, FamilyRotate, FamilySwipe, FamilyTap, FamilyPress}

// EmitFunc signals a named emission. The Computed is the recognizer's view of
// the sample, including any running figures it attached.
type EmitFunc func(eventType string, c compute.Computed)

// Scheduler runs f after d. The engine provides a Scheduler whose callbacks
// execute on the same turn discipline as Process.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) timeutil.Task
}

// Recognizer classifies one gesture family from a stream of Computed samples.
type Recognizer interface {
	Name() string
	Family() Family
	Enabled() bool
	SetEnabled(enabled bool)
	Status() Status

	// ComputeFuncs lists the metric functions the recognizer reads.
	ComputeFuncs() []compute.Factory

	// Attach sets the scheduler used for the recognizer's timers. It must be
	// called before the first Recognize; timer callbacks run only through it,
	// so the scheduler decides how they are serialized with Recognize.
	Attach(s Scheduler)

	// Recognize advances the state machine by one sample.
	Recognize(c compute.Computed, emit EmitFunc)

	// Reset cancels pending timers and returns to StatusPossible.
	Reset()
}

// Base holds the state shared by every recognizer.
type Base struct {
	name    string
	family  Family
	enabled bool
	status  Status
	sched   Scheduler
}

func newBase(name string, family Family) Base {
	if name == "" {
		name = string(family)
	}
	return Base{
		name:    name,
		family:  family,
		enabled: true,
		status:  StatusPossible,
	}
}

func (b *Base) Name() string            { return b.name }
func (b *Base) Family() Family          { return b.family }
func (b *Base) Enabled() bool           { return b.enabled }
func (b *Base) SetEnabled(enabled bool) { b.enabled = enabled }
func (b *Base) Status() Status          { return b.status }
func (b *Base) Attach(s Scheduler)      { b.sched = s }

func (b *Base) scheduler() Scheduler {
	if b.sched == nil {
		panic(fmt.Errorf("%w: %q", ErrNotAttached, b.name))
	}
	return b.sched
}

// contactCount returns the number of contacts the sample describes. At End
// and Cancel the released contacts are counted, taken from the previous sample.
func contactCount(c *compute.Computed) int {
	if c.Stage == pointer.StageEnd || c.Stage == pointer.StageCancel {
		if c.PrevInput != nil {
			return c.PrevInput.PointLength
		}
	}
	return c.PointLength
}

// Timer is a single owned timer slot. Arming replaces the pending callback;
// a callback superseded by Arm or Cancel never runs, even if its underlying
// task already fired and is waiting for its turn.
type Timer struct {
	owner *Base
	task  timeutil.Task
	gen   uint64
}

// Arm schedules f after d, cancelling any pending callback.
func (t *Timer) Arm(d time.Duration, f func()) {
	t.Cancel()
	gen := t.gen
	t.task = t.owner.scheduler().AfterFunc(d, func() {
		if t.gen != gen {
			return
		}
		t.task = nil
		t.gen++
		f()
	})
}

// Cancel invalidates the pending callback. Cancelling an idle timer is a no-op.
func (t *Timer) Cancel() {
	t.gen++
	if t.task != nil {
		t.task.Stop()
		t.task = nil
	}
}

// Pending reports whether a callback is armed.
func (t *Timer) Pending() bool {
	return t.task != nil
}
