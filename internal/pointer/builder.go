package pointer

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Kind is the type of a raw pointer event reported by a hardware adapter.
type Kind string

const (
	KindDown   Kind = "down"
	KindMove   Kind = "move"
	KindUp     Kind = "up"
	KindCancel Kind = "cancel"
)

// ErrUnknownKind is returned for raw events with an unsupported kind.
var ErrUnknownKind = errors.New("unknown pointer event kind")

// RawPointer is the position of one pointer in a raw event.
type RawPointer struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// RawEvent is a single hardware-level pointer event. Pointers lists the
// pointers the event concerns: the pressed or moved pointers for down/move,
// the released pointers for up. Cancel releases every pointer.
type RawEvent struct {
	Kind      Kind         `json:"type"`
	Pointers  []RawPointer `json:"pointers"`
	Timestamp int64        `json:"timestamp"`
	Source    string       `json:"source,omitempty"`
}

// Builder turns raw pointer events into normalized Inputs. It tracks the
// active pointers by ID and guarantees exactly one START and one terminal
// END or CANCEL per lifecycle.
type Builder struct {
	mu         sync.Mutex
	active     map[int]Point
	start      *Input
	prev       *Input
	startMulti *Input
	lastTime   int64
}

// NewBuilder creates a Builder with no active pointers.
func NewBuilder() *Builder {
	return &Builder{
		active: make(map[int]Point),
	}
}

// Active returns the number of pointers currently in contact.
func (b *Builder) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}

// Build converts a raw event into an Input. It returns nil without error for
// events that carry no lifecycle information, such as a hover move or an up
// for a pointer that was never pressed.
func (b *Builder) Build(ev RawEvent) (*Input, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasActive := len(b.active)
	var changed []Point

	switch ev.Kind {
	case KindDown:
		for _, p := range ev.Pointers {
			b.active[p.ID] = Point{X: p.X, Y: p.Y}
			changed = append(changed, Point{X: p.X, Y: p.Y})
		}
	case KindMove:
		if wasActive == 0 {
			return nil, nil
		}
		for _, p := range ev.Pointers {
			if _, ok := b.active[p.ID]; ok {
				b.active[p.ID] = Point{X: p.X, Y: p.Y}
				changed = append(changed, Point{X: p.X, Y: p.Y})
			}
		}
	case KindUp:
		for _, p := range ev.Pointers {
			if _, ok := b.active[p.ID]; ok {
				delete(b.active, p.ID)
				changed = append(changed, Point{X: p.X, Y: p.Y})
			}
		}
		if len(changed) == 0 {
			return nil, nil
		}
	case KindCancel:
		if wasActive == 0 {
			return nil, nil
		}
		changed = b.sortedPoints()
		b.active = make(map[int]Point)
	default:
		return nil, ErrUnknownKind
	}

	var stage Stage
	switch {
	case ev.Kind == KindCancel:
		stage = StageCancel
	case wasActive == 0 && len(b.active) > 0:
		stage = StageStart
	case len(b.active) == 0:
		stage = StageEnd
	default:
		stage = StageMove
	}

	// Keep timestamps monotonic even if the adapter's clock jitters.
	ts := ev.Timestamp
	if ts < b.lastTime {
		ts = b.lastTime
	}
	b.lastTime = ts

	points := b.sortedPoints()
	in := &Input{
		ID:            uuid.NewString(),
		Source:        ev.Source,
		Stage:         stage,
		Timestamp:     ts,
		Points:        points,
		ChangedPoints: changed,
		PointLength:   len(points),
	}

	if c, ok := Center(points); ok {
		in.X, in.Y = c.X, c.Y
	} else if c, ok := Center(changed); ok {
		in.X, in.Y = c.X, c.Y
	} else if b.prev != nil {
		in.X, in.Y = b.prev.X, b.prev.Y
	}

	if stage == StageStart {
		b.start = in.Snapshot()
		b.prev = nil
		b.startMulti = nil
	}
	if in.PointLength > 1 && (b.startMulti == nil || b.prev == nil || b.prev.PointLength != in.PointLength) {
		b.startMulti = in.Snapshot()
	}

	in.StartInput = b.start
	in.PrevInput = b.prev
	in.StartMultiInput = b.startMulti

	b.prev = in.Snapshot()
	if stage == StageEnd || stage == StageCancel {
		b.reset()
	}

	return in, nil
}

// Reset drops all tracked pointers and lifecycle references.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = make(map[int]Point)
	b.reset()
}

func (b *Builder) reset() {
	b.start = nil
	b.prev = nil
	b.startMulti = nil
}

// sortedPoints returns the active points ordered by pointer ID, so that the
// first two points of a multi-touch lifecycle stay stable between samples.
func (b *Builder) sortedPoints() []Point {
	ids := make([]int, 0, len(b.active))
	for id := range b.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	points := make([]Point, 0, len(ids))
	for _, id := range ids {
		points = append(points, b.active[id])
	}
	return points
}
