//go:build gocv
// +build gocv

package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// cameraSource reads frames from a local capture device via OpenCV
type cameraSource struct {
	deviceID int

	mu     sync.Mutex
	webcam *gocv.VideoCapture
	warmed bool
}

// NewCameraSource creates a frame source for the given capture device
func NewCameraSource(deviceID int) FrameSource {
	return &cameraSource{deviceID: deviceID}
}

func (s *cameraSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam != nil {
		return nil
	}

	webcam, err := gocv.OpenVideoCapture(s.deviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, s.deviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return fmt.Errorf("%w: device %d did not open", ErrCameraUnavailable, s.deviceID)
	}

	s.webcam = webcam
	s.warmed = false
	return nil
}

func (s *cameraSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil || !s.webcam.IsOpened() {
		return false
	}
	if s.warmed {
		return true
	}

	// First frames after opening are often empty while the sensor
	// adjusts; probe until a real one arrives.
	frame := gocv.NewMat()
	defer frame.Close()

	if s.webcam.Read(&frame) && !frame.Empty() {
		s.warmed = true
	}
	return s.warmed
}

func (s *cameraSource) Capture() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil || !s.webcam.IsOpened() || !s.warmed {
		return nil, ErrNotReady
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if !s.webcam.Read(&frame) || frame.Empty() {
		return nil, ErrNotReady
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("could not encode frame: %w", err)
	}
	defer buf.Close()

	encoded := make([]byte, len(buf.GetBytes()))
	copy(encoded, buf.GetBytes())
	return encoded, nil
}

func (s *cameraSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil {
		return nil
	}

	err := s.webcam.Close()
	s.webcam = nil
	s.warmed = false
	return err
}
