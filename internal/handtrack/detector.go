package handtrack

import "gocv.io/x/gocv"

// Detector finds hands in a video frame.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// DetectorConfig holds hand detection options.
type DetectorConfig struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence (0.0-1.0).
	MinConfidence float64
}

// DefaultDetectorConfig returns the detection options used by the service.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MaxHands:      2,
		MinConfidence: 0.5,
	}
}
