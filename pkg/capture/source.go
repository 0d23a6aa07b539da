package capture

import (
	"context"
	"errors"
)

// ErrCameraUnavailable means no live camera can be opened in this
// environment; the controller downgrades to upload mode instead of
// failing the attempt
var ErrCameraUnavailable = errors.New("camera unavailable")

// ErrNotReady means the live source has not buffered a frame yet
var ErrNotReady = errors.New("camera is not ready yet")

// FrameSource is a live camera producing still frames on demand
type FrameSource interface {
	// Open starts the live stream
	Open(ctx context.Context) error

	// Ready reports whether a frame can be captured right now
	Ready() bool

	// Capture snapshots the current frame as an encoded JPEG at the
	// source's native resolution
	Capture() ([]byte, error)

	// Close stops the live stream; safe to call when not open
	Close() error
}
