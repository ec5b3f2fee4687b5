package recognizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/compute"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/timeutil"
)

// harness drives a single recognizer with raw pointer events through the
// real input builder and metrics cache.
type harness struct {
	t       *testing.T
	rec     Recognizer
	builder *pointer.Builder
	cache   *compute.Cache
	clock   *timeutil.MockClock

	events   []string
	payloads []compute.Computed
}

func newHarness(t *testing.T, r Recognizer) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		rec:     r,
		builder: pointer.NewBuilder(),
		cache:   compute.NewCache(),
		clock:   timeutil.NewMockClock(time.Unix(0, 0)),
	}
	h.cache.Add(r.ComputeFuncs()...)
	r.Attach(h.clock)
	return h
}

func (h *harness) emit(eventType string, c compute.Computed) {
	h.events = append(h.events, eventType)
	h.payloads = append(h.payloads, c)
}

func (h *harness) send(kind pointer.Kind, ts int64, ps ...pointer.RawPointer) {
	h.t.Helper()
	in, err := h.builder.Build(pointer.RawEvent{Kind: kind, Pointers: ps, Timestamp: ts})
	require.NoError(h.t, err)
	if in == nil {
		return
	}
	c, err := h.cache.Run(in)
	require.NoError(h.t, err)
	h.rec.Recognize(c, h.emit)
}

func (h *harness) down(ts int64, ps ...pointer.RawPointer) { h.send(pointer.KindDown, ts, ps...) }
func (h *harness) move(ts int64, ps ...pointer.RawPointer) { h.send(pointer.KindMove, ts, ps...) }
func (h *harness) up(ts int64, ps ...pointer.RawPointer)   { h.send(pointer.KindUp, ts, ps...) }
func (h *harness) cancel(ts int64)                         { h.send(pointer.KindCancel, ts) }

// tap sends a quick touch-and-release at (x, y) starting at ts.
func (h *harness) tap(ts int64, x, y float64) {
	h.down(ts, at(1, x, y))
	h.up(ts+50, at(1, x, y))
}

func (h *harness) reset() {
	h.events = nil
	h.payloads = nil
}

func at(id int, x, y float64) pointer.RawPointer {
	return pointer.RawPointer{ID: id, X: x, Y: y}
}
