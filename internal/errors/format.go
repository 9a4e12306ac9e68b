package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.FgRed, color.Bold)
	usageColor   = color.New(color.FgCyan)
	stepColor    = color.New(color.FgYellow)
)

// FormatError renders err with colors for terminal output
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	return render(err, headingColor.Sprint, usageColor.Sprint, stepColor.Sprint)
}

// FormatErrorPlain renders err without colors
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return render(err, fmt.Sprint, fmt.Sprint, fmt.Sprint)
}

func render(err *CLIError, heading, usage, step func(...interface{}) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", heading(err.Category.String()), err.Message)

	if err.Usage != "" {
		fmt.Fprintf(&b, "\nUsage: %s\n", usage(err.Usage))
	}

	if len(err.Remediation) > 0 {
		b.WriteString("\nTo fix this:\n")
		for i, r := range err.Remediation {
			fmt.Fprintf(&b, "  %s %s\n", step(fmt.Sprintf("%d.", i+1)), r)
		}
	}
	return b.String()
}

// PrintError writes err to stderr
func PrintError(err *CLIError) {
	FprintError(os.Stderr, err)
}

// FprintError writes err to w
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}

// FormatSimpleError renders any error under the given category
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return FormatError(cliErr)
	}
	return FormatError(&CLIError{Category: category, Message: err.Error()})
}
