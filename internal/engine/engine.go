// Package engine runs registered gesture recognizers against a stream of
// pointer inputs and delivers their emissions to subscribers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/compute"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/timeutil"
)

// ErrDuplicateName is returned when a recognizer name is already registered.
// The existing registration is left untouched.
var ErrDuplicateName = errors.New("recognizer name already registered")

// Logf is the engine's logger. Replace it to redirect or silence output.
var Logf = log.Printf

// Input event types published for every processed sample, before any
// recognizer runs. InputEventPrefix is followed by the sample's stage.
const (
	InputEvent       = "input"
	InputEventPrefix = "input:"
)

// Event is an emitted gesture event.
type Event struct {
	compute.Computed
	Type     string `json:"type"`
	BaseType string `json:"baseType"`
}

func (e Event) clone() Event {
	e.Computed = e.Computed.Clone()
	return e
}

// Hook intercepts an emission before delivery. The event is delivered only
// if deliver is called; a hook may drop it or call deliver later.
type Hook func(r recognizer.Recognizer, deliver func())

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for recognizer timers.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithoutDefaults skips seeding the engine from the default registry.
func WithoutDefaults() Option {
	return func(e *Engine) { e.seed = false }
}

// WithRecognizers registers rs after the defaults. Duplicate names are
// logged and skipped.
func WithRecognizers(rs ...recognizer.Recognizer) Option {
	return func(e *Engine) { e.initial = append(e.initial, rs...) }
}

// Engine orchestrates recognizers over a single pointer lifecycle track.
//
// Process and timer callbacks each run as one turn: recognizers update under
// the state lock, then the turn's emissions go through the hook and the
// subscribers with that lock released. Hooks and handlers may read or change
// the registry (Get, States, SetEnabled, Register) but must not call Process.
type Engine struct {
	turn        sync.Mutex
	mu          sync.Mutex
	clock       timeutil.Clock
	recognizers []recognizer.Recognizer
	byName      map[string]recognizer.Recognizer
	cache       *compute.Cache
	hook        Hook
	bus         *bus
	pending     []emission

	seed    bool
	initial []recognizer.Recognizer
}

// New creates an Engine seeded with the default registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:  timeutil.RealClock{},
		byName: make(map[string]recognizer.Recognizer),
		cache:  compute.NewCache(),
		bus:    newBus(),
		seed:   true,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.seed {
		for _, r := range defaultRecognizers() {
			e.register(r)
		}
	}
	for _, r := range e.initial {
		if err := e.register(r); err != nil {
			Logf("engine: skip recognizer %q: %v", r.Name(), err)
		}
	}
	e.initial = nil
	return e
}

// Register adds r at the end of the evaluation order.
func (e *Engine) Register(r recognizer.Recognizer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.register(r)
}

func (e *Engine) register(r recognizer.Recognizer) error {
	if _, ok := e.byName[r.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name())
	}
	r.Attach(lockedScheduler{e})
	e.byName[r.Name()] = r
	e.recognizers = append(e.recognizers, r)
	if r.Enabled() {
		e.cache.Add(r.ComputeFuncs()...)
	}
	return nil
}

// Replace registers r in place of the recognizer with the same name,
// keeping its position in the evaluation order. Without such a recognizer
// r is appended.
func (e *Engine) Replace(r recognizer.Recognizer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.byName[r.Name()]
	if !ok {
		e.register(r)
		return
	}

	old.Reset()
	if old.Enabled() {
		e.cache.Remove(old.ComputeFuncs()...)
	}
	for i, cur := range e.recognizers {
		if cur == old {
			e.recognizers[i] = r
			break
		}
	}
	r.Attach(lockedScheduler{e})
	e.byName[r.Name()] = r
	if r.Enabled() {
		e.cache.Add(r.ComputeFuncs()...)
	}
}

// Unregister removes the named recognizers, or every recognizer when no
// name is given. Pending timers of removed recognizers are cancelled.
func (e *Engine) Unregister(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(names) == 0 {
		for _, r := range e.recognizers {
			r.Reset()
		}
		e.recognizers = nil
		e.byName = make(map[string]recognizer.Recognizer)
		e.cache.Clear()
		return
	}

	for _, name := range names {
		r, ok := e.byName[name]
		if !ok {
			continue
		}
		r.Reset()
		if r.Enabled() {
			e.cache.Remove(r.ComputeFuncs()...)
		}
		delete(e.byName, name)
		for i, cur := range e.recognizers {
			if cur == r {
				e.recognizers = append(e.recognizers[:i], e.recognizers[i+1:]...)
				break
			}
		}
	}
}

// Get returns the named recognizer.
func (e *Engine) Get(name string) (recognizer.Recognizer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.byName[name]
	return r, ok
}

// Recognizers returns the registered recognizers in evaluation order.
func (e *Engine) Recognizers() []recognizer.Recognizer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]recognizer.Recognizer, len(e.recognizers))
	copy(out, e.recognizers)
	return out
}

// State is a point-in-time view of a registered recognizer.
type State struct {
	Name    string            `json:"name"`
	Family  recognizer.Family `json:"family"`
	Enabled bool              `json:"enabled"`
	Status  recognizer.Status `json:"status"`
}

// States returns the state of every recognizer in evaluation order.
func (e *Engine) States() []State {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]State, 0, len(e.recognizers))
	for _, r := range e.recognizers {
		out = append(out, State{Name: r.Name(), Family: r.Family(), Enabled: r.Enabled(), Status: r.Status()})
	}
	return out
}

// SetEnabled enables or disables the named recognizer. A disabled
// recognizer is skipped by Process and its pending timers are cancelled.
func (e *Engine) SetEnabled(name string, enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.byName[name]
	if !ok {
		return false
	}
	if r.Enabled() == enabled {
		return true
	}
	r.SetEnabled(enabled)
	if enabled {
		e.cache.Add(r.ComputeFuncs()...)
	} else {
		r.Reset()
		e.cache.Remove(r.ComputeFuncs()...)
	}
	return true
}

// Intercept installs the before-delivery hook, replacing any previous one.
// A nil hook restores immediate delivery.
func (e *Engine) Intercept(h Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = h
}

// On subscribes fn to events of the given type. Use CatchAll to receive
// every event.
func (e *Engine) On(eventType string, fn Handler) Subscription {
	return e.bus.on(eventType, fn)
}

// Process runs one input sample through the metrics pipeline and every
// enabled recognizer, in registration order. A pipeline error aborts the
// sample before any event is published or recognizer runs.
func (e *Engine) Process(in *pointer.Input) error {
	if in == nil {
		return nil
	}

	var err error
	e.runTurn(func() {
		var c compute.Computed
		c, err = e.cache.Run(in)
		if err != nil {
			return
		}

		e.pending = append(e.pending,
			emission{ev: Event{Computed: c.Clone(), Type: InputEvent, BaseType: InputEvent}},
			emission{ev: Event{Computed: c.Clone(), Type: InputEventPrefix + string(c.Stage), BaseType: InputEvent}},
		)
		for _, r := range e.recognizers {
			if !r.Enabled() {
				continue
			}
			r.Recognize(c, e.emitter(r))
		}
	})
	return err
}

// Run processes inputs in arrival order until the channel is closed or ctx
// is done. Pipeline errors are logged and the sample is dropped.
func (e *Engine) Run(ctx context.Context, inputs <-chan *pointer.Input) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-inputs:
			if !ok {
				return nil
			}
			if err := e.Process(in); err != nil {
				Logf("engine: drop input %s: %v", in.ID, err)
			}
		}
	}
}

// Close cancels every pending recognizer timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.recognizers {
		r.Reset()
	}
}

// emission is an event waiting for delivery at the end of a turn. Input
// events have no recognizer and bypass the hook.
type emission struct {
	r  recognizer.Recognizer
	ev Event
}

// runTurn runs f under the state lock and then delivers what it emitted, in
// order, with only the turn lock held.
func (e *Engine) runTurn(f func()) {
	e.turn.Lock()
	defer e.turn.Unlock()

	out, hook := e.update(f)
	for _, em := range out {
		e.deliver(em, hook)
	}
}

// update runs f under the state lock and takes the emissions it buffered.
func (e *Engine) update(f func()) ([]emission, Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = nil
	f()
	out := e.pending
	e.pending = nil
	return out, e.hook
}

func (e *Engine) deliver(em emission, hook Hook) {
	if em.r == nil || hook == nil {
		e.bus.publish(em.ev)
		return
	}
	var once sync.Once
	hook(em.r, func() {
		once.Do(func() { e.bus.publish(em.ev) })
	})
}

// emitter returns the emission callback handed to r. It may be called
// later from r's timers, always with e.mu held.
func (e *Engine) emitter(r recognizer.Recognizer) recognizer.EmitFunc {
	return func(eventType string, c compute.Computed) {
		e.pending = append(e.pending, emission{
			r:  r,
			ev: Event{Computed: c.Clone(), Type: eventType, BaseType: r.Name()},
		})
	}
}

// lockedScheduler runs timer callbacks as engine turns.
type lockedScheduler struct {
	e *Engine
}

func (s lockedScheduler) AfterFunc(d time.Duration, f func()) timeutil.Task {
	return s.e.clock.AfterFunc(d, func() { s.e.runTurn(f) })
}
