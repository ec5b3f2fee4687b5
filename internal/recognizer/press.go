package recognizer

import (
	"time"

	"github.com/ayusman/mudra/internal/compute"
	"github.com/ayusman/mudra/internal/pointer"
)

// PressOptions configures a Press recognizer.
type PressOptions struct {
	Name         string
	PointLength  int
	Threshold    float64       // movement must stay under this distance in px
	MinPressTime time.Duration // hold time before the press is confirmed
}

// DefaultPressOptions returns the default press configuration.
func DefaultPressOptions() PressOptions {
	return PressOptions{
		Name:         string(FamilyPress),
		PointLength:  1,
		Threshold:    9,
		MinPressTime: 251 * time.Millisecond,
	}
}

// Press recognizes a still hold. The press is confirmed by a timer once the
// contacts stayed put for MinPressTime; releasing afterwards emits name+"up".
type Press struct {
	Base
	opts    PressOptions
	confirm Timer
}

// NewPress creates a Press recognizer.
func NewPress(opts PressOptions) *Press {
	p := &Press{Base: newBase(opts.Name, FamilyPress), opts: opts}
	p.confirm.owner = &p.Base
	return p
}

func (p *Press) ComputeFuncs() []compute.Factory {
	return []compute.Factory{compute.Distance}
}

func (p *Press) Reset() {
	p.confirm.Cancel()
	p.status = StatusPossible
}

func (p *Press) Recognize(c compute.Computed, emit EmitFunc) {
	if c.Stage == pointer.StageStart {
		p.Reset()
	}

	switch p.status {
	case StatusFailed:
		return
	case StatusRecognized:
		if c.Stage == pointer.StageEnd {
			emit(p.name+"up", c)
		}
		return
	}

	if c.Stage == pointer.StageEnd || c.Stage == pointer.StageCancel {
		p.confirm.Cancel()
		p.status = StatusFailed
		return
	}

	if !p.test(&c) {
		p.confirm.Cancel()
		p.status = StatusFailed
		return
	}

	p.confirm.Arm(p.opts.MinPressTime, func() {
		p.status = StatusRecognized
		emit(p.name, c)
	})
}

func (p *Press) test(c *compute.Computed) bool {
	return contactCount(c) == p.opts.PointLength && c.Distance < p.opts.Threshold
}
