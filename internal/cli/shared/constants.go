// Package shared provides constants and helpers used across CLI commands.
// This package has no dependencies on the cli package to avoid circular imports.
package shared

import (
	"errors"
	"fmt"

	apperrors "github.com/ariel-frischer/tasknotify/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupMonitoring  = "monitoring"
	GroupIdentity    = "identity"
	GroupDiagnostics = "diagnostics"
)

// Exit codes for CLI commands
const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitInvalidArguments  = 3
	ExitMissingDependency = 4
	ExitConfigInvalid     = 5
)

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// IsExitError reports whether err only carries an exit code.
func IsExitError(err error) bool {
	var e *exitError
	return errors.As(err, &e)
}

// ExitCode returns the exit code for err. CLIErrors map by category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case apperrors.Argument:
			return ExitInvalidArguments
		case apperrors.Prerequisite:
			return ExitMissingDependency
		case apperrors.Configuration:
			return ExitConfigInvalid
		}
	}
	return ExitFailure
}
