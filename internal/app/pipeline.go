package app

import (
	"context"
	"encoding/json"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/store"
)

// pruneInterval is the number of recorded events between history prunes.
const pruneInterval = 100

// enqueue hands a gesture event to the pipeline. It runs on the engine's
// processing turn, so it never blocks: events are dropped while the queue is
// full.
func (a *App) enqueue(ev engine.Event) {
	if ev.BaseType == engine.InputEvent {
		return
	}
	select {
	case a.events <- ev:
	default:
		Logf("Event queue full, dropping %q", ev.Type)
	}
}

// runPipeline handles queued gesture events until ctx is done.
//
// For every event:
// 1. Remember it as the last event
// 2. Record it in the history, pruning old entries
// 3. Run the plugin actions bound to its type
// 4. Notify the event callbacks
func (a *App) runPipeline(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.events:
			a.handle(ctx, ev)
		}
	}
}

func (a *App) handle(ctx context.Context, ev engine.Event) {
	a.mu.Lock()
	a.last = &ev
	callbacks := append([]func(engine.Event){}, a.callbacks...)
	a.mu.Unlock()

	if a.settings.History.Enabled {
		a.record(ev)
	}

	if _, err := a.dispatcher.Dispatch(ctx, ev.Type, ev); err != nil {
		Logf("Action for %q failed: %v", ev.Type, err)
	}

	for _, fn := range callbacks {
		fn(ev)
	}
}

func (a *App) record(ev engine.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		Logf("Failed to encode event %q: %v", ev.Type, err)
		return
	}

	rec := &store.EventRecord{
		Type:        ev.Type,
		BaseType:    ev.BaseType,
		Stage:       string(ev.Stage),
		X:           ev.X,
		Y:           ev.Y,
		PointLength: ev.PointLength,
		Data:        data,
	}
	if err := a.store.Events().Create(rec); err != nil {
		Logf("Failed to record event %q: %v", ev.Type, err)
		return
	}

	a.recorded++
	if keep := a.settings.History.Keep; keep > 0 && a.recorded%pruneInterval == 0 {
		if _, err := a.store.Events().Prune(keep); err != nil {
			Logf("Failed to prune event history: %v", err)
		}
	}
}
