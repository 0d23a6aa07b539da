//go:build !gocv
// +build !gocv

package capture

import "context"

// cameraSource is the no-camera stub used when the binary is built
// without the gocv tag; opening it always fails so the controller
// falls back to upload mode.
type cameraSource struct {
	deviceID int
}

// NewCameraSource creates a frame source for the given capture device
func NewCameraSource(deviceID int) FrameSource {
	return &cameraSource{deviceID: deviceID}
}

func (s *cameraSource) Open(ctx context.Context) error {
	_ = ctx
	return ErrCameraUnavailable
}

func (s *cameraSource) Ready() bool {
	return false
}

func (s *cameraSource) Capture() ([]byte, error) {
	return nil, ErrNotReady
}

func (s *cameraSource) Close() error {
	return nil
}
