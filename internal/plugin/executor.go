package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var (
	// ErrTimeout is returned when a plugin does not answer in time.
	ErrTimeout = errors.New("plugin execution timeout")
	// ErrActionFailed is returned by Run when a plugin reports failure.
	ErrActionFailed = errors.New("plugin action failed")
)

// maxStderr caps how much of a failing plugin's stderr is quoted in errors.
const maxStderr = 512

// Executor runs plugin executables, one process per request.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor that kills a plugin after timeout.
// A zero timeout leaves the deadline to the caller's context.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute sends req to the plugin on stdin and parses its stdout as a
// Response. The plugin runs in its own directory.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s %s: %w after %v", plugin.Manifest.Name, req.Action, ErrTimeout, e.timeout)
	}
	if err != nil {
		if msg := tail(stderr.Bytes(), maxStderr); msg != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, msg)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, tail(stdout.Bytes(), maxStderr))
	}

	return &response, nil
}

// Run executes req and treats an unsuccessful response as an error
// wrapping ErrActionFailed.
func (e *Executor) Run(ctx context.Context, plugin *Plugin, req *Request) error {
	resp, err := e.Execute(ctx, plugin, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s %s: %w: %s", plugin.Manifest.Name, req.Action, ErrActionFailed, resp.Error)
	}
	return nil
}

// tail returns the last n bytes of b as trimmed text.
func tail(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
