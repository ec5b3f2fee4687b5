// Package pointer defines the normalized pointer input consumed by the
// recognition engine and the adapter that produces it from raw pointer events.
package pointer

import "math"

// Stage is the lifecycle phase label carried by every Input.
type Stage string

const (
	// StageStart opens a lifecycle (first contact).
	StageStart Stage = "start"
	// StageMove is any sample between the first contact and the final release.
	StageMove Stage = "move"
	// StageEnd closes a lifecycle after all contacts are released.
	StageEnd Stage = "end"
	// StageCancel aborts a lifecycle.
	StageCancel Stage = "cancel"
)

// Point is a 2D position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Input is a normalized snapshot of the pointer lifecycle at one instant.
// It is immutable once produced by a Builder.
type Input struct {
	ID        string `json:"id"`
	Source    string `json:"source,omitempty"` // "touch", "mouse", "hand"
	Stage     Stage  `json:"stage"`
	Timestamp int64  `json:"timestamp"` // milliseconds

	// Center of the active points (or of the released points at End).
	X float64 `json:"x"`
	Y float64 `json:"y"`

	Points        []Point `json:"points"`
	ChangedPoints []Point `json:"changedPoints,omitempty"`
	PointLength   int     `json:"pointLength"`

	// Lifecycle references. They are flat snapshots: their own references are nil.
	StartInput      *Input `json:"-"`
	PrevInput       *Input `json:"-"`
	StartMultiInput *Input `json:"-"`
}

// Center returns the input's center point.
func (in *Input) Center() Point {
	return Point{X: in.X, Y: in.Y}
}

// IsLifecycleStart reports whether the input opens a new lifecycle,
// i.e. a START sample with no active points before it.
func (in *Input) IsLifecycleStart() bool {
	if in.Stage != StageStart {
		return false
	}
	return in.PrevInput == nil || in.PrevInput.PointLength == 0
}

// Snapshot returns a copy of the input with its lifecycle references cleared,
// so that inputs referencing each other never form an unbounded chain.
func (in *Input) Snapshot() *Input {
	if in == nil {
		return nil
	}
	cp := *in
	cp.Points = ClonePoints(in.Points)
	cp.ChangedPoints = ClonePoints(in.ChangedPoints)
	cp.StartInput = nil
	cp.PrevInput = nil
	cp.StartMultiInput = nil
	return &cp
}

// ClonePoints returns a copy of points. A nil slice stays nil.
func ClonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return Length(b.X-a.X, b.Y-a.Y)
}

// Length returns the length of the vector (x, y).
func Length(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}

// Center returns the centroid of points, or false when points is empty.
func Center(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}, true
}

// Angle returns the signed angle in degrees that rotates vector v1 onto v2.
// Positive values are clockwise in screen coordinates (y grows downward).
func Angle(v1, v2 Point) float64 {
	if Length(v1.X, v1.Y) == 0 || Length(v2.X, v2.Y) == 0 {
		return 0
	}
	cross := v1.X*v2.Y - v1.Y*v2.X
	dot := v1.X*v2.X + v1.Y*v2.Y
	return math.Atan2(cross, dot) * 180 / math.Pi
}

// Vector returns the vector from the first to the second point of points.
// It reports false when fewer than two points are present.
func Vector(points []Point) (Point, bool) {
	if len(points) < 2 {
		return Point{}, false
	}
	return Point{X: points[1].X - points[0].X, Y: points[1].Y - points[0].Y}, true
}
