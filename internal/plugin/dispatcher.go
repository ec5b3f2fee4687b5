package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ayusman/mudra/internal/store"
)

// Logf reports dispatch failures. Tests may replace it.
var Logf = log.Printf

// ActionSource looks up the actions bound to an event type.
type ActionSource interface {
	ListByEventType(eventType string) ([]*store.Action, error)
}

// Dispatcher runs the plugin actions bound to emitted events.
type Dispatcher struct {
	actions  ActionSource
	plugins  *Manager
	executor *Executor
}

// NewDispatcher creates a Dispatcher over the given bindings and plugins.
func NewDispatcher(actions ActionSource, plugins *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{
		actions:  actions,
		plugins:  plugins,
		executor: executor,
	}
}

// Dispatch runs every enabled action bound to eventType, passing payload as
// the request params. It returns the number of actions that succeeded and
// the first error encountered; a failing action does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload any) (int, error) {
	actions, err := d.actions.ListByEventType(eventType)
	if err != nil {
		return 0, fmt.Errorf("list actions for %q: %w", eventType, err)
	}
	if len(actions) == 0 {
		return 0, nil
	}

	params, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode %q payload: %w", eventType, err)
	}

	var firstErr error
	succeeded := 0
	for _, a := range actions {
		if err := d.run(ctx, a, eventType, params); err != nil {
			Logf("plugin: action %s (%s/%s) for %q failed: %v", a.ID, a.PluginName, a.ActionName, eventType, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		succeeded++
	}

	return succeeded, firstErr
}

func (d *Dispatcher) run(ctx context.Context, a *store.Action, eventType string, params json.RawMessage) error {
	p, err := d.plugins.Resolve(a.PluginName, a.ActionName, eventType)
	if err != nil {
		return err
	}

	return d.executor.Run(ctx, p, &Request{
		Action: a.ActionName,
		Event:  eventType,
		Config: a.Config,
		Params: params,
	})
}
