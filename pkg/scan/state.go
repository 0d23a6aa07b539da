package scan

import "github.com/jpbenga/tyrecheck/internal/models"

// Status tags the variants of a scan attempt's state
type Status string

const (
	StatusIdle       Status = "idle"
	StatusCamera     Status = "camera"
	StatusProcessing Status = "processing"
	StatusResult     Status = "result"
	StatusError      Status = "error"
)

// State is one snapshot of a scan attempt. Exactly one status is active;
// which other fields are meaningful depends on it:
//   - Processing: ImageRef
//   - Result: ImageRef, Classification
//   - Error: Message, Details, optionally ImageRef
//
// States are immutable values; transitions replace the whole snapshot.
type State struct {
	Status         Status
	ImageRef       string
	Classification *models.Classification
	Message        string
	Details        string
}

// Idle is the initial state
func Idle() State {
	return State{Status: StatusIdle}
}

// Camera is the capture/selection state
func Camera() State {
	return State{Status: StatusCamera}
}

// Processing marks an attempt in flight, displaying the given preview
func Processing(imageRef string) State {
	return State{Status: StatusProcessing, ImageRef: imageRef}
}

// Result carries a completed classification for the given preview
func Result(imageRef string, c models.Classification) State {
	return State{Status: StatusResult, ImageRef: imageRef, Classification: &c}
}

// Error carries a failed attempt; imageRef may be empty when the failure
// happened before a preview existed
func Error(message, details, imageRef string) State {
	return State{Status: StatusError, ImageRef: imageRef, Message: message, Details: details}
}
