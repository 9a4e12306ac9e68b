package progress

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// formatCounter returns the [N/Total] step counter string
func formatCounter(number, total int) string {
	return fmt.Sprintf("[%d/%d]", number, total)
}

// buildStepMessage constructs the running message for a step
func buildStepMessage(step StepInfo) string {
	return fmt.Sprintf("%s %s...", formatCounter(step.Number, step.Total), capitalize(step.Name))
}

// capitalize returns the string with the first letter capitalized
func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// checkmark returns the success symbol, green when color is supported
func checkmark(symbols Symbols, supportsColor bool) string {
	if !supportsColor {
		return symbols.Checkmark
	}
	c := color.New(color.FgGreen)
	c.EnableColor()
	return c.Sprint(symbols.Checkmark)
}

// failureMark returns the failure symbol, red when color is supported
func failureMark(symbols Symbols, supportsColor bool) string {
	if !supportsColor {
		return symbols.Failure
	}
	c := color.New(color.FgRed)
	c.EnableColor()
	return c.Sprint(symbols.Failure)
}
