package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/handtrack"
	"gocv.io/x/gocv"
)

const streamInterval = 66 * time.Millisecond // ~15 FPS

// StreamHandler serves MJPEG frames from the hand-tracking camera.
type StreamHandler struct {
	camera handtrack.Camera
}

// NewStreamHandler creates a new StreamHandler with the given camera.
func NewStreamHandler(camera handtrack.Camera) *StreamHandler {
	return &StreamHandler{camera: camera}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.camera.IsOpen() {
		http.Error(w, "Camera not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		if err := h.writeFrame(w); err != nil {
			continue
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, err := h.camera.ReadFrame()
	if err != nil {
		return err
	}
	buf, err := gocv.IMEncode(".jpg", *frame)
	frame.Close()
	if err != nil {
		return err
	}
	defer buf.Close()

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
	w.Write(buf.GetBytes())
	fmt.Fprintf(w, "\r\n")
	return nil
}
