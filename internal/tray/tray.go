// Package tray provides a system tray menu for pausing gesture recognition
// and showing the last recognized gesture.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onPause    func(paused bool)
	onSettings func()
	onQuit     func()
	paused     bool
	last       string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuPause *systray.MenuItem
	menuLast  *systray.MenuItem
}

// New creates a new Tray instance in the active state.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback called when the user pauses or resumes.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Gesture Recognition")

	t.mu.Lock()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume gesture recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last recognized gesture")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handlePause flips the pause state and reports it.
func (t *Tray) handlePause() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetPaused updates the displayed pause state without calling OnPause.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
}

// IsPaused returns the displayed pause state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = name
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(name))
	}
}

// LastGesture returns the displayed last gesture.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func pauseTitle(paused bool) string {
	if paused {
		return "○ Paused"
	}
	return "● Active"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
