// Package main provides a system control plugin for macOS.
// It handles volume, brightness, and media playback controls via AppleScript
// in response to gesture events.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
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

// VolumeConfig is the binding configuration of the volume actions.
type VolumeConfig struct {
	Step int `json:"step"` // percent, default 10
}

// EventParams holds the gesture event fields the plugin reads.
type EventParams struct {
	Direction string `json:"direction"`
}

// actionHandler defines a function type for handling specific actions.
type actionHandler func(req *Request) error

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	"volume-up":        volumeUp,
	"volume-down":      volumeDown,
	"volume-mute":      volumeMute,
	"volume-follow":    volumeFollow,
	"brightness-up":    brightnessUp,
	"brightness-down":  brightnessDown,
	"media-play-pause": mediaPlayPause,
	"media-next":       mediaNext,
	"media-prev":       mediaPrev,
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	// Look up the handler for the action
	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	// Execute the handler
	if err := handler(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	// Write success response
	writeSuccessResponse()
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

// volumeStep returns the configured volume step in percent.
func volumeStep(req *Request) int {
	cfg := VolumeConfig{Step: 10}
	if len(req.Config) > 0 {
		json.Unmarshal(req.Config, &cfg)
	}
	if cfg.Step <= 0 || cfg.Step > 100 {
		cfg.Step = 10
	}
	return cfg.Step
}

// volumeUp increases the system volume by the configured step.
func volumeUp(req *Request) error {
	script := fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) + %d)`, volumeStep(req))
	return runAppleScript(script)
}

// volumeDown decreases the system volume by the configured step.
func volumeDown(req *Request) error {
	script := fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) - %d)`, volumeStep(req))
	return runAppleScript(script)
}

// volumeFollow raises the volume for upward gestures and lowers it for
// downward ones. Other directions are ignored.
func volumeFollow(req *Request) error {
	var ev EventParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &ev); err != nil {
			return fmt.Errorf("failed to parse event: %w", err)
		}
	}
	switch ev.Direction {
	case "up":
		return volumeUp(req)
	case "down":
		return volumeDown(req)
	default:
		return nil
	}
}

// volumeMute toggles the system mute state.
func volumeMute(*Request) error {
	script := `set volume output muted (not (output muted of (get volume settings)))`
	return runAppleScript(script)
}

// brightnessUp increases the screen brightness.
func brightnessUp(*Request) error {
	script := `tell application "System Events"
	key code 144
end tell`
	return runAppleScript(script)
}

// brightnessDown decreases the screen brightness.
func brightnessDown(*Request) error {
	script := `tell application "System Events"
	key code 145
end tell`
	return runAppleScript(script)
}

// mediaPlayPause toggles media play/pause using the F8/Play-Pause media key.
func mediaPlayPause(*Request) error {
	script := `tell application "System Events"
	key code 100
end tell`
	return runAppleScript(script)
}

// mediaNext skips to the next track using the F9/Next media key.
func mediaNext(*Request) error {
	script := `tell application "System Events"
	key code 101
end tell`
	return runAppleScript(script)
}

// mediaPrev skips to the previous track using the F7/Previous media key.
func mediaPrev(*Request) error {
	script := `tell application "System Events"
	key code 98
end tell`
	return runAppleScript(script)
}
