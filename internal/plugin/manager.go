package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrUnknownAction is returned when a plugin does not provide an action.
	ErrUnknownAction = errors.New("plugin does not provide action")
	// ErrEventNotAccepted is returned when an action cannot be bound to an
	// event type.
	ErrEventNotAccepted = errors.New("action does not accept event")
)

// Manager manages plugin discovery and access.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover replaces the known plugins with those found in the plugin
// directory. Each subdirectory holding a valid plugin.json is a plugin.
// Invalid manifests are logged and skipped; when two directories claim the
// same name, the first in directory order wins. A missing directory holds no
// plugins.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		plugin, err := loadPlugin(pluginPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				Logf("plugin: skip %s: %v", pluginPath, err)
			}
			continue
		}

		if prev, ok := m.plugins[plugin.Manifest.Name]; ok {
			Logf("plugin: skip %s: name %q already provided by %s", pluginPath, plugin.Manifest.Name, prev.Path)
			continue
		}
		m.plugins[plugin.Manifest.Name] = plugin
	}

	return nil
}

// loadPlugin reads and validates the plugin.json in dir.
func loadPlugin(dir string) (*Plugin, error) {
	manifestData, err := os.ReadFile(filepath.Join(dir, "plugin.json"))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// Resolve returns the plugin that runs action for eventType. It fails with
// ErrPluginNotFound, ErrUnknownAction or ErrEventNotAccepted when the
// binding cannot run.
func (m *Manager) Resolve(pluginName, action, eventType string) (*Plugin, error) {
	plugin, err := m.Get(pluginName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pluginName, err)
	}
	if !plugin.Manifest.HasAction(action) {
		return nil, fmt.Errorf("%s: %w %q", pluginName, ErrUnknownAction, action)
	}
	if eventType != "" && !plugin.Manifest.Accepts(action, eventType) {
		return nil, fmt.Errorf("%s/%s: %w %q", pluginName, action, ErrEventNotAccepted, eventType)
	}
	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
