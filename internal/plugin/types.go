// Package plugin discovers action plugins and runs them when gesture events
// they are bound to are emitted.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
)

// ErrInvalidManifest is returned for a plugin.json that cannot describe a
// runnable plugin.
var ErrInvalidManifest = errors.New("invalid plugin manifest")

// Manifest describes a plugin's metadata and capabilities.
//
// Events restricts the gesture events an action can be bound to, as glob
// patterns over event types ("swipe*", "pinchend"). An action without an
// entry accepts every event.
type Manifest struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Description  string              `json:"description"`
	Executable   string              `json:"executable"`
	Actions      []string            `json:"actions"`
	Events       map[string][]string `json:"events,omitempty"`
	ConfigSchema json.RawMessage     `json:"configSchema,omitempty"`
}

// Validate checks that the manifest names a plugin, its executable and its
// actions, and that every event pattern belongs to a listed action.
func (m *Manifest) Validate() error {
	if m.Name == "" || m.Executable == "" {
		return fmt.Errorf("%w: name and executable are required", ErrInvalidManifest)
	}
	if len(m.Actions) == 0 {
		return fmt.Errorf("%w: %s lists no actions", ErrInvalidManifest, m.Name)
	}
	for action, patterns := range m.Events {
		if !m.HasAction(action) {
			return fmt.Errorf("%w: %s: events for unknown action %q", ErrInvalidManifest, m.Name, action)
		}
		for _, p := range patterns {
			if _, err := path.Match(p, ""); err != nil {
				return fmt.Errorf("%w: %s/%s: pattern %q: %v", ErrInvalidManifest, m.Name, action, p, err)
			}
		}
	}
	return nil
}

// HasAction reports whether the plugin provides action.
func (m *Manifest) HasAction(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Accepts reports whether action can be bound to eventType.
func (m *Manifest) Accepts(action, eventType string) bool {
	patterns, ok := m.Events[action]
	if !ok {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, eventType); ok {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action string          `json:"action"`
	Event  string          `json:"event"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
