// Package main provides a keyboard plugin for macOS.
// It sends keyboard shortcuts and keystrokes via AppleScript when a bound
// gesture event fires.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Event  string          `json:"event"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeConfig is the binding configuration of keystroke and shortcut actions.
type KeystrokeConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// EventParams holds the gesture event fields the plugin reads.
type EventParams struct {
	Direction string `json:"direction"`
}

// arrowKeyCodes maps gesture directions to macOS arrow key codes.
var arrowKeyCodes = map[string]int{
	"left":  123,
	"right": 124,
	"down":  125,
	"up":    126,
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	// Handle keystroke and shortcut actions
	switch req.Action {
	case "keystroke", "shortcut":
		if err := handleKeystroke(req.Config); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	case "arrow":
		if err := handleArrow(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	// Write success response
	writeSuccessResponse()
}

// handleKeystroke processes keystroke and shortcut actions.
func handleKeystroke(config json.RawMessage) error {
	var p KeystrokeConfig
	if err := json.Unmarshal(config, &p); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	script := buildKeystrokeScript(p.Key, p.Modifiers)
	return runAppleScript(script)
}

// handleArrow presses the arrow key matching the event's direction.
func handleArrow(params json.RawMessage) error {
	var ev EventParams
	if err := json.Unmarshal(params, &ev); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	code, ok := arrowKeyCodes[ev.Direction]
	if !ok {
		return fmt.Errorf("event has no direction")
	}
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to key code %d`, code))
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	if len(modifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}

	// Convert modifiers to AppleScript format
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}

	modifierList := strings.Join(appleModifiers, ", ")
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, modifierList)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
