// Package handtrack turns camera frames into pointer samples. A hand
// detector reports landmarks per frame; bringing the thumb and index
// fingertips together is a contact, and the contact point follows the
// midpoint of the two tips.
package handtrack

import "math"

// Hand landmark indices following the MediaPipe convention.
const (
	Wrist        = 0
	ThumbTip     = 4
	IndexMCP     = 5
	IndexTip     = 8
	MiddleMCP    = 9
	PinkyMCP     = 17
	NumLandmarks = 21
)

// Point3D is a landmark position in normalized image coordinates: x and y
// in [0, 1] from the top-left corner, z relative to the wrist depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand holds the 21 landmarks of one detected hand.
type Hand struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

func distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Size is the wrist to middle knuckle distance, used as the hand's scale.
func (h *Hand) Size() float64 {
	return distance2D(h.Points[Wrist], h.Points[MiddleMCP])
}

// PinchGap returns the thumb to index fingertip distance relative to the
// hand size, so the value does not depend on how far the hand is from the
// camera. A degenerate hand reports +Inf.
func (h *Hand) PinchGap() float64 {
	size := h.Size()
	if size < 1e-9 {
		return math.Inf(1)
	}
	return distance2D(h.Points[ThumbTip], h.Points[IndexTip]) / size
}

// ContactPoint returns the midpoint of the thumb and index fingertips.
func (h *Hand) ContactPoint() (x, y float64) {
	thumb, index := h.Points[ThumbTip], h.Points[IndexTip]
	return (thumb.X + index.X) / 2, (thumb.Y + index.Y) / 2
}
