package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/internal/models"
	"github.com/jpbenga/tyrecheck/pkg/scan"
)

// Mode selects how the next image is acquired
type Mode string

const (
	ModeCamera Mode = "camera"
	ModeUpload Mode = "upload"
)

// AnalyzeAPI is the slice of the relay client the controller needs
type AnalyzeAPI interface {
	Analyze(ctx context.Context, image io.Reader, filename string) (*models.AnalyzeResult, error)
}

// Controller acquires exactly one image per attempt and drives the scan
// store through its transitions. One analysis call is in flight per
// attempt; starting a new attempt supersedes the previous preview but
// does not cancel the outstanding call — a completion whose attempt tag
// no longer matches the current attempt is discarded.
type Controller struct {
	store    *scan.Store
	api      AnalyzeAPI
	source   FrameSource
	previews *PreviewRegistry
	logger   *logrus.Logger

	mu        sync.Mutex
	mode      Mode
	current   *PreviewRef
	attemptID string
	uploading bool
	lastError string

	// transitions serializes attempt tagging with the store transition it
	// triggers, so a completion that passed the staleness check can never
	// write after a newer attempt's processing transition. Subscribers
	// must not submit a new attempt synchronously from a notification.
	transitions sync.Mutex

	inflight sync.WaitGroup
}

// NewController creates a controller in camera mode
func NewController(store *scan.Store, api AnalyzeAPI, source FrameSource, logger *logrus.Logger) *Controller {
	return &Controller{
		store:    store,
		api:      api,
		source:   source,
		previews: NewPreviewRegistry(),
		logger:   logger,
		mode:     ModeCamera,
	}
}

// Previews exposes the registry so display code can resolve references
func (c *Controller) Previews() *PreviewRegistry {
	return c.previews
}

// Mode returns the current acquisition mode
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// LastError returns the message surfaced for inline display, if any
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Uploading reports whether an analysis call is in flight
func (c *Controller) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// EnterCameraMode requests live camera access and moves the store to the
// camera state. Denial or an unsupported environment is not fatal: the
// controller falls back to upload mode and records a readable reason.
func (c *Controller) EnterCameraMode(ctx context.Context) {
	c.store.ToCamera()

	err := c.source.Open(ctx)
	if err == nil {
		c.mu.Lock()
		c.mode = ModeCamera
		c.lastError = ""
		c.mu.Unlock()
		return
	}

	reason := "Could not access camera."
	if errors.Is(err, ErrCameraUnavailable) {
		reason = "Camera not supported on this device. Please upload a photo instead."
	}

	c.logger.WithError(err).Warn("Camera unavailable, falling back to upload mode")

	c.mu.Lock()
	c.mode = ModeUpload
	c.lastError = reason
	c.mu.Unlock()
	c.source.Close()
}

// CaptureFrame snapshots the current live frame and submits it for
// analysis. Returns ErrNotReady while the source has no frame buffered.
func (c *Controller) CaptureFrame(ctx context.Context) error {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	if mode != ModeCamera {
		return fmt.Errorf("not in camera mode")
	}
	if !c.source.Ready() {
		c.setLastError("Camera is not ready yet.")
		return ErrNotReady
	}

	frame, err := c.source.Capture()
	if err != nil {
		c.setLastError("Could not capture image.")
		return err
	}

	filename := fmt.Sprintf("capture_%d.jpg", time.Now().UnixMilli())
	c.submitForAnalysis(ctx, frame, filename)
	return nil
}

// SelectFile submits a user-chosen file directly, bypassing the camera.
// No format validation happens here; the relay is the authority on what
// it accepts.
func (c *Controller) SelectFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		c.setLastError("Could not read selected file.")
		return fmt.Errorf("failed to read file: %w", err)
	}

	c.submitForAnalysis(ctx, data, filepath.Base(path))
	return nil
}

// SwitchMode toggles between camera and upload, stopping or starting the
// live stream and clearing transient error state
func (c *Controller) SwitchMode(ctx context.Context, mode Mode) {
	c.mu.Lock()
	if c.mode == mode {
		c.mu.Unlock()
		return
	}
	c.mode = mode
	c.lastError = ""
	c.mu.Unlock()

	if mode == ModeUpload {
		c.source.Close()
		return
	}
	c.EnterCameraMode(ctx)
}

// Restart begins a fresh attempt: back to the camera screen, at which
// point the previous preview becomes eligible for release
func (c *Controller) Restart(ctx context.Context) {
	c.transitions.Lock()
	c.mu.Lock()
	old := c.current
	c.current = nil
	c.attemptID = ""
	c.lastError = ""
	c.mu.Unlock()
	c.transitions.Unlock()

	if old != nil {
		c.previews.Release(old.ID)
	}
	c.EnterCameraMode(ctx)
}

// LeaveCamera stops the live stream, releases the current preview and
// returns the store to idle
func (c *Controller) LeaveCamera() {
	c.source.Close()

	c.transitions.Lock()
	c.mu.Lock()
	old := c.current
	c.current = nil
	c.attemptID = ""
	c.lastError = ""
	c.mu.Unlock()
	c.store.ToIdle()
	c.transitions.Unlock()

	if old != nil {
		c.previews.Release(old.ID)
	}
}

// Wait blocks until any in-flight analysis call has completed; for hosts
// that need a synchronous attempt (CLI, tests)
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// submitForAnalysis registers a new preview (superseding the previous
// one), transitions to processing and launches the analysis call
func (c *Controller) submitForAnalysis(ctx context.Context, image []byte, filename string) {
	ref := c.previews.Create(image)
	attempt := uuid.NewString()

	c.transitions.Lock()
	c.mu.Lock()
	old := c.current
	c.current = ref
	c.attemptID = attempt
	c.uploading = true
	c.lastError = ""
	c.mu.Unlock()

	c.store.ToProcessing(ref.ID)
	c.transitions.Unlock()

	if old != nil {
		c.previews.Release(old.ID)
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.runAnalysis(ctx, attempt, ref, image, filename)
	}()
}

// runAnalysis performs the network call and applies its outcome, unless
// a newer attempt has superseded this one in the meantime
func (c *Controller) runAnalysis(ctx context.Context, attempt string, ref *PreviewRef, image []byte, filename string) {
	result, err := c.api.Analyze(ctx, bytes.NewReader(image), filename)

	c.transitions.Lock()
	defer c.transitions.Unlock()

	c.mu.Lock()
	if c.attemptID != attempt {
		c.mu.Unlock()
		c.logger.WithField("attempt", attempt).Debug("Discarding stale analysis result")
		return
	}
	c.uploading = false
	c.mu.Unlock()

	if err != nil {
		c.applyError("Failed to analyze image", err.Error(), ref)
		return
	}
	if !result.OK() {
		c.applyError(result.Err, result.Details, ref)
		return
	}

	c.store.ToResult(ref.ID, result.Classification)
}

// applyError funnels a failure into the error state and the inline message
func (c *Controller) applyError(message, details string, ref *PreviewRef) {
	c.mu.Lock()
	c.lastError = message
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"error":   message,
		"details": details,
	}).Warn("Analysis failed")

	c.store.ToError(message, details, ref.ID)
}

func (c *Controller) setLastError(message string) {
	c.mu.Lock()
	c.lastError = message
	c.mu.Unlock()
}
