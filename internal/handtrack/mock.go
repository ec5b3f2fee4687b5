package handtrack

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector replays scripted detections, one entry per Detect call.
// After the script runs out, the last entry repeats.
type MockDetector struct {
	mu     sync.Mutex
	script [][]Hand
	next   int
	err    error
	calls  int
}

// NewMockDetector creates a MockDetector that reports no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands makes every following Detect call return hands.
func (m *MockDetector) SetHands(hands ...Hand) {
	m.SetScript(hands)
}

// SetScript replaces the detection script.
func (m *MockDetector) SetScript(frames ...[]Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = frames
	m.next = 0
}

// SetError makes Detect fail with err. A nil err restores the script.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Detect calls so far.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockDetector) Detect(*gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) == 0 {
		return nil, nil
	}

	i := m.next
	if i >= len(m.script) {
		i = len(m.script) - 1
	} else {
		m.next++
	}
	return m.script[i], nil
}

func (m *MockDetector) Close() error {
	return nil
}

// PinchedHand returns a right hand whose thumb and index fingertips touch
// at (x, y) in normalized coordinates.
func PinchedHand(x, y float64) Hand {
	return handAt(x, y, 0.01)
}

// OpenHand returns a right hand whose thumb and index fingertips are spread
// around (x, y) in normalized coordinates.
func OpenHand(x, y float64) Hand {
	return handAt(x, y, 0.12)
}

// handAt builds a hand with a 0.2 wide palm below the fingertips and the
// thumb and index tips gap apart, centered on (x, y).
func handAt(x, y, gap float64) Hand {
	h := Hand{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: x, Y: y + 0.3}
	h.Points[MiddleMCP] = Point3D{X: x, Y: y + 0.1}
	h.Points[IndexMCP] = Point3D{X: x + 0.03, Y: y + 0.1}
	h.Points[PinkyMCP] = Point3D{X: x - 0.08, Y: y + 0.12}
	h.Points[ThumbTip] = Point3D{X: x - gap/2, Y: y}
	h.Points[IndexTip] = Point3D{X: x + gap/2, Y: y}
	return h
}
