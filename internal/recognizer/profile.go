package recognizer

import (
	"fmt"
	"time"
)

// Profile is a serializable recognizer configuration. Unset fields take the
// family default; an explicit zero threshold or duration is kept. Counts of
// zero are never valid and also mean the default. Durations are in
// milliseconds.
type Profile struct {
	Name        string   `json:"name" yaml:"name"`
	Family      Family   `json:"family" yaml:"family"`
	Enabled     *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	PointLength int      `json:"pointLength,omitempty" yaml:"point_length,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Velocity    *float64 `json:"velocity,omitempty" yaml:"velocity,omitempty"`

	TapTimes               int      `json:"tapTimes,omitempty" yaml:"tap_times,omitempty"`
	WaitNextTapTime        *int64   `json:"waitNextTapTime,omitempty" yaml:"wait_next_tap_time,omitempty"`
	MaxDistance            *float64 `json:"maxDistance,omitempty" yaml:"max_distance,omitempty"`
	MaxDistanceFromPrevTap *float64 `json:"maxDistanceFromPrevTap,omitempty" yaml:"max_distance_from_prev_tap,omitempty"`
	MaxPressTime           *int64   `json:"maxPressTime,omitempty" yaml:"max_press_time,omitempty"`

	MinPressTime *int64 `json:"minPressTime,omitempty" yaml:"min_press_time,omitempty"`
}

// Float64 returns a pointer to v, for setting optional profile fields.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v, for setting optional profile fields.
func Int64(v int64) *int64 { return &v }

// IsEnabled reports whether the profile enables its recognizer. Profiles
// without an explicit flag are enabled.
func (p Profile) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Validate checks the profile for values no recognizer can use.
func (p Profile) Validate() error {
	if !p.Family.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFamily, p.Family)
	}
	if p.PointLength < 0 {
		return fmt.Errorf("profile %q: point length must not be negative", p.Name)
	}
	for _, v := range []*float64{p.Threshold, p.Velocity, p.MaxDistance, p.MaxDistanceFromPrevTap} {
		if v != nil && *v < 0 {
			return fmt.Errorf("profile %q: thresholds must not be negative", p.Name)
		}
	}
	if p.TapTimes < 0 {
		return fmt.Errorf("profile %q: counts and durations must not be negative", p.Name)
	}
	for _, v := range []*int64{p.WaitNextTapTime, p.MaxPressTime, p.MinPressTime} {
		if v != nil && *v < 0 {
			return fmt.Errorf("profile %q: counts and durations must not be negative", p.Name)
		}
	}
	return nil
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}

// FromProfile builds a recognizer from p.
func FromProfile(p Profile) (Recognizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var r Recognizer
	switch p.Family {
	case FamilyPan:
		o := DefaultPanOptions()
		o.Name = p.Name
		setInt(&o.PointLength, p.PointLength)
		setFloat(&o.Threshold, p.Threshold)
		r = NewPan(o)
	case FamilyPinch:
		o := DefaultPinchOptions()
		o.Name = p.Name
		setInt(&o.PointLength, p.PointLength)
		setFloat(&o.Threshold, p.Threshold)
		r = NewPinch(o)
	case FamilyRotate:
		o := DefaultRotateOptions()
		o.Name = p.Name
		setInt(&o.PointLength, p.PointLength)
		setFloat(&o.Threshold, p.Threshold)
		r = NewRotate(o)
	case FamilySwipe:
		o := DefaultSwipeOptions()
		o.Name = p.Name
		setInt(&o.PointLength, p.PointLength)
		setFloat(&o.Threshold, p.Threshold)
		setFloat(&o.Velocity, p.Velocity)
		r = NewSwipe(o)
	case FamilyTap:
		o := DefaultTapOptions()
		o.Name = p.Name
		setInt(&o.PointLength, p.PointLength)
		setInt(&o.TapTimes, p.TapTimes)
		setMillis(&o.WaitNextTapTime, p.WaitNextTapTime)
		setFloat(&o.MaxDistance, p.MaxDistance)
		setFloat(&o.MaxDistanceFromPrevTap, p.MaxDistanceFromPrevTap)
		setMillis(&o.MaxPressTime, p.MaxPressTime)
		r = NewTap(o)
	case FamilyPress:
		o := DefaultPressOptions()
		o.Name = p.Name
		setInt(&o.PointLength, p.PointLength)
		setFloat(&o.Threshold, p.Threshold)
		setMillis(&o.MinPressTime, p.MinPressTime)
		r = NewPress(o)
	}

	r.SetEnabled(p.IsEnabled())
	return r, nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, ms *int64) {
	if ms != nil {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}
