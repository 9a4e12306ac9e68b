// Package progress renders numbered steps with a spinner on interactive
// terminals and plain lines elsewhere.
package progress

import apperrors "github.com/ariel-frischer/tasknotify/internal/errors"

// StepStatus represents the execution state of a step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepDone
	StepFailed
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepInfo describes one step of a multi-step command
type StepInfo struct {
	// Name is the human-readable step name (e.g., "fetching tasks")
	Name string
	// Number is the 1-based step index
	Number int
	// Total is the number of steps
	Total int
}

// Validate checks that all StepInfo fields are usable
func (s StepInfo) Validate() error {
	if s.Name == "" {
		return apperrors.NewArgumentError("step name cannot be empty")
	}
	if s.Number <= 0 {
		return apperrors.NewArgumentError("step number must be > 0")
	}
	if s.Total <= 0 {
		return apperrors.NewArgumentError("total steps must be > 0")
	}
	if s.Number > s.Total {
		return apperrors.NewArgumentError("step number cannot exceed total steps")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether stderr is a terminal (vs pipe/redirect)
	IsTTY bool
	// SupportsColor indicates whether the terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether the terminal supports Unicode characters
	SupportsUnicode bool
	// Width is the terminal width in columns (0 if unknown/pipe)
	Width int
}

// Symbols defines the character set for visual indicators
type Symbols struct {
	// Checkmark is the success indicator ("✓" or "[OK]")
	Checkmark string
	// Failure is the failure indicator ("✗" or "[FAIL]")
	Failure string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}
