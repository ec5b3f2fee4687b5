package engine

import "sync"

// CatchAll subscribes to every published event.
const CatchAll = "*"

// Handler receives a published event.
type Handler func(Event)

type handlerEntry struct {
	id uint32
	fn Handler
}

// bus routes events to handlers by event type. Handlers for a type run in
// subscription order, followed by the catch-all handlers.
type bus struct {
	mu       sync.RWMutex
	nextID   uint32
	handlers map[string][]handlerEntry
}

func newBus() *bus {
	return &bus{handlers: make(map[string][]handlerEntry)}
}

// Subscription allows removing a registered handler.
type Subscription struct {
	id        uint32
	eventType string
	bus       *bus
}

// Remove unregisters the handler so it no longer fires. Removing twice is a no-op.
func (s Subscription) Remove() {
	if s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	entries := s.bus.handlers[s.eventType]
	for i, e := range entries {
		if e.id == s.id {
			s.bus.handlers[s.eventType] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(s.bus.handlers[s.eventType]) == 0 {
		delete(s.bus.handlers, s.eventType)
	}
}

func (b *bus) on(eventType string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{id: id, fn: fn})
	return Subscription{id: id, eventType: eventType, bus: b}
}

// publish delivers ev to the handlers registered for its type and to the
// catch-all handlers. Each handler gets its own copy of the point slices.
func (b *bus) publish(ev Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[ev.Type])+len(b.handlers[CatchAll]))
	for _, e := range b.handlers[ev.Type] {
		targets = append(targets, e.fn)
	}
	for _, e := range b.handlers[CatchAll] {
		targets = append(targets, e.fn)
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		fn(ev.clone())
	}
}

func (b *bus) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, entries := range b.handlers {
		n += len(entries)
	}
	return n
}
