package handtrack

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// Kalman filter tuning for a fingertip tracked in pixels. Process noise
// allows quick direction changes; measurement noise absorbs landmark jitter.
const (
	smoothStdDevA = 2.0
	smoothStdDevM = 1.5
)

// Smoother filters the contact point with a constant-velocity 2D Kalman
// filter. It is reset at the start of each contact.
type Smoother struct {
	dt float64
	kf *kalman_filter.Kalman2D
}

// NewSmoother creates a Smoother for samples arriving at fps.
func NewSmoother(fps int) *Smoother {
	if fps <= 0 {
		fps = DefaultCameraConfig().FPS
	}
	return &Smoother{dt: 1 / float64(fps)}
}

// Reset forgets the tracked position.
func (s *Smoother) Reset() {
	s.kf = nil
}

// Smooth feeds a measured position and returns the filtered one. The first
// measurement after a reset is returned unchanged.
func (s *Smoother) Smooth(x, y float64) (float64, float64, error) {
	if s.kf == nil {
		s.kf = kalman_filter.NewKalman2D(s.dt, 0, 0, smoothStdDevA, smoothStdDevM, smoothStdDevM, kalman_filter.WithState2D(x, y))
		return x, y, nil
	}

	s.kf.Predict()
	if err := s.kf.Update(x, y); err != nil {
		return x, y, errors.Wrap(err, "can't update contact filter")
	}
	sx, sy := s.kf.GetState()
	return sx, sy, nil
}
