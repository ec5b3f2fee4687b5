package handtrack

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the landmark service script is missing.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

// serviceIdleTimeout stops the Python service after this long without frames.
const serviceIdleTimeout = 30 * time.Second

// MediaPipeDetector runs a Python MediaPipe landmark service as a child
// process. Frames are written to its stdin as a 4-byte big-endian length
// followed by JPEG data; it answers with one JSON line per frame.
type MediaPipeDetector struct {
	config DetectorConfig
	script string
	python string

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	idleTimer *time.Timer
}

// NewMediaPipeDetector locates the service script. The process is started
// lazily by the first Detect call.
func NewMediaPipeDetector(config DetectorConfig) (*MediaPipeDetector, error) {
	script := findFile(searchPaths("scripts/mediapipe_service.py"))
	if script == "" {
		return nil, ErrServiceNotFound
	}
	python := findFile(searchPaths("venv/bin/python"))
	if python == "" {
		python = "python3"
	}
	return &MediaPipeDetector{config: config, script: script, python: python}, nil
}

// Detect sends frame to the service and returns the hands it reports.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	msg := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(msg, uint32(len(data)))
	copy(msg[4:], data)
	if _, err := d.stdin.Write(msg); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []serviceHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := make([]Hand, 0, len(response.Hands))
	for _, h := range response.Hands {
		if h.Score < d.config.MinConfidence {
			continue
		}
		hands = append(hands, h.hand())
	}

	d.armIdleTimer()
	return hands, nil
}

// Close stops the service process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) start() error {
	if d.cmd != nil {
		return nil
	}

	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	return nil
}

func (d *MediaPipeDetector) stop() error {
	if d.cmd == nil {
		return nil
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()
	d.cmd, d.stdin, d.stdout = nil, nil, nil
	return err
}

func (d *MediaPipeDetector) armIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stop()
	})
}

// searchPaths lists the locations checked for a bundled file: the working
// directory and its parents, next to the executable, and ~/.mudra.
func searchPaths(rel string) []string {
	paths := []string{rel, filepath.Join("..", rel), filepath.Join("..", "..", rel)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mudra", rel))
	}
	return paths
}

// findFile returns the absolute path of the first existing candidate.
func findFile(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

type serviceHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h serviceHand) hand() Hand {
	out := Hand{Handedness: h.Handedness, Score: h.Score}
	copy(out.Points[:], h.Points)
	return out
}
