package scan

// View names the screen the host should show for a given state
type View string

const (
	ViewLanding    View = "landing"
	ViewCamera     View = "camera"
	ViewProcessing View = "processing"
	ViewResult     View = "result"
)

// DeriveView maps a scan state to the screen to display. It is pure and
// total; errors surface inline on the camera screen rather than on a
// dedicated error screen.
func DeriveView(s State) View {
	switch s.Status {
	case StatusCamera:
		return ViewCamera
	case StatusProcessing:
		return ViewProcessing
	case StatusResult:
		return ViewResult
	case StatusError:
		return ViewCamera
	default:
		return ViewLanding
	}
}
