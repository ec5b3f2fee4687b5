package handtrack

import (
	"sort"

	"github.com/ayusman/mudra/internal/pointer"
)

// SourceHand is the Input source reported for hand-tracked samples.
const SourceHand = "hand"

// releaseFactor widens the pinch threshold while a contact is held so that
// landmark jitter around the threshold does not end the contact.
const releaseFactor = 1.5

// AdapterConfig configures the conversion from landmarks to pointer events.
type AdapterConfig struct {
	// Width and Height scale normalized landmarks to pixels.
	Width  int
	Height int
	// PinchGap is the relative fingertip distance below which a hand is in
	// contact. See Hand.PinchGap.
	PinchGap float64
	// Smooth enables Kalman filtering of contact points at FPS.
	Smooth bool
	FPS    int
}

// DefaultAdapterConfig returns the adapter settings used by the service.
func DefaultAdapterConfig() AdapterConfig {
	cam := DefaultCameraConfig()
	return AdapterConfig{
		Width:    cam.Width,
		Height:   cam.Height,
		PinchGap: 0.25,
		Smooth:   true,
		FPS:      cam.FPS,
	}
}

type handState struct {
	pinched  bool
	last     pointer.RawPointer
	smoother *Smoother
}

// Adapter turns per-frame hand detections into raw pointer events. Each
// hand is one pointer: Left is pointer 1, Right is pointer 2, so pinching
// with both hands drives two-finger gestures.
type Adapter struct {
	config AdapterConfig
	hands  map[int]*handState
}

// NewAdapter creates an Adapter with no hand in contact.
func NewAdapter(config AdapterConfig) *Adapter {
	defaults := DefaultAdapterConfig()
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = defaults.Width, defaults.Height
	}
	if config.PinchGap <= 0 {
		config.PinchGap = defaults.PinchGap
	}
	return &Adapter{config: config, hands: make(map[int]*handState)}
}

// Pinched returns the number of hands currently in contact.
func (a *Adapter) Pinched() int {
	n := 0
	for _, st := range a.hands {
		if st.pinched {
			n++
		}
	}
	return n
}

// Observe converts one frame's detections, taken at ts milliseconds, into
// raw events in the order they must be built: moves, then new contacts,
// then releases. A hand in contact that is no longer detected cancels the
// whole lifecycle.
func (a *Adapter) Observe(hands []Hand, ts int64) ([]pointer.RawEvent, error) {
	seen := make(map[int]Hand, len(hands))
	for i, h := range hands {
		id := pointerID(h, i)
		if cur, ok := seen[id]; ok && cur.Score >= h.Score {
			continue
		}
		seen[id] = h
	}

	for id, st := range a.hands {
		if _, ok := seen[id]; st.pinched && !ok {
			return a.cancel(ts), nil
		}
	}

	var moved, down, up []pointer.RawPointer
	for _, id := range sortedIDs(seen) {
		h := seen[id]
		st := a.state(id)
		gap := h.PinchGap()

		switch {
		case !st.pinched && gap < a.config.PinchGap:
			st.pinched = true
			if st.smoother != nil {
				st.smoother.Reset()
			}
			p, err := a.contact(id, st, &h)
			if err != nil {
				return nil, err
			}
			down = append(down, p)
		case st.pinched && gap > a.config.PinchGap*releaseFactor:
			st.pinched = false
			up = append(up, st.last)
		case st.pinched:
			p, err := a.contact(id, st, &h)
			if err != nil {
				return nil, err
			}
			moved = append(moved, p)
		}
	}

	var events []pointer.RawEvent
	for _, e := range []struct {
		kind pointer.Kind
		ps   []pointer.RawPointer
	}{{pointer.KindMove, moved}, {pointer.KindDown, down}, {pointer.KindUp, up}} {
		if len(e.ps) > 0 {
			events = append(events, pointer.RawEvent{Kind: e.kind, Pointers: e.ps, Timestamp: ts, Source: SourceHand})
		}
	}
	return events, nil
}

// Reset releases every hand. It returns a cancel event when a contact was
// held, so the lifecycle can be closed.
func (a *Adapter) Reset(ts int64) []pointer.RawEvent {
	if a.Pinched() == 0 {
		a.hands = make(map[int]*handState)
		return nil
	}
	return a.cancel(ts)
}

func (a *Adapter) cancel(ts int64) []pointer.RawEvent {
	var ps []pointer.RawPointer
	for _, id := range sortedIDs(a.hands) {
		if st := a.hands[id]; st.pinched {
			ps = append(ps, st.last)
		}
	}
	a.hands = make(map[int]*handState)
	return []pointer.RawEvent{{Kind: pointer.KindCancel, Pointers: ps, Timestamp: ts, Source: SourceHand}}
}

func (a *Adapter) state(id int) *handState {
	st, ok := a.hands[id]
	if !ok {
		st = &handState{}
		if a.config.Smooth {
			st.smoother = NewSmoother(a.config.FPS)
		}
		a.hands[id] = st
	}
	return st
}

// contact computes the pixel contact point of h and records it as the
// hand's last position.
func (a *Adapter) contact(id int, st *handState, h *Hand) (pointer.RawPointer, error) {
	nx, ny := h.ContactPoint()
	x, y := nx*float64(a.config.Width), ny*float64(a.config.Height)
	if st.smoother != nil {
		var err error
		if x, y, err = st.smoother.Smooth(x, y); err != nil {
			return pointer.RawPointer{}, err
		}
	}
	st.last = pointer.RawPointer{ID: id, X: x, Y: y}
	return st.last, nil
}

// pointerID maps a hand to a stable pointer ID. Hands without handedness
// are numbered by detection order after the two labelled hands.
func pointerID(h Hand, index int) int {
	switch h.Handedness {
	case "Left":
		return 1
	case "Right":
		return 2
	default:
		return 3 + index
	}
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
