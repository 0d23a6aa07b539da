package classifier

import "fmt"

// InvocationError represents a classifier process that failed to run or
// exited non-zero
type InvocationError struct {
	ExitCode int
	Message  string
	Stderr   string
}

func (e *InvocationError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("classifier exited with code %d: %s", e.ExitCode, e.Message)
	}
	return fmt.Sprintf("classifier invocation failed: %s", e.Message)
}

// TimeoutError represents a classifier invocation that exceeded its deadline
type TimeoutError struct {
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("classifier timed out after %s", e.Timeout)
}

// OutputError represents classifier output that could not be parsed as
// the expected JSON result shape
type OutputError struct {
	Reason string
	Output string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("unexpected classifier output: %s", e.Reason)
}

// IsFailure reports whether err is any classifier failure (as opposed to
// a caller-side error such as a cancelled context)
func IsFailure(err error) bool {
	switch err.(type) {
	case *InvocationError, *TimeoutError, *OutputError:
		return true
	}
	return false
}
