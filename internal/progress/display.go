package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Display renders step progress to a writer
type Display struct {
	capabilities TerminalCapabilities
	out          io.Writer
	current      *StepInfo
	spinner      *spinner.Spinner
	symbols      Symbols
}

// NewDisplay creates a display writing to out; a nil out writes to stderr
func NewDisplay(caps TerminalCapabilities, out io.Writer) *Display {
	if out == nil {
		out = os.Stderr
	}
	return &Display{
		capabilities: caps,
		out:          out,
		symbols:      SelectSymbols(caps),
	}
}

// Start begins displaying a step
func (d *Display) Start(step StepInfo) error {
	if err := step.Validate(); err != nil {
		return err
	}
	d.StopSpinner()
	d.current = &step

	msg := buildStepMessage(step)
	if d.capabilities.IsTTY {
		writer := spinner.WithWriter(d.out)
		if f, ok := d.out.(*os.File); ok {
			writer = spinner.WithWriterFile(f)
		}
		d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, writer)
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
	} else {
		fmt.Fprintln(d.out, msg)
	}
	return nil
}

// Complete stops the spinner and prints a success line. detail, when not
// empty, is appended after the step name.
func (d *Display) Complete(step StepInfo, detail string) {
	d.StopSpinner()
	mark := checkmark(d.symbols, d.capabilities.SupportsColor)
	line := fmt.Sprintf("%s %s %s", mark, formatCounter(step.Number, step.Total), capitalize(step.Name))
	if detail != "" {
		line += ": " + detail
	}
	fmt.Fprintln(d.out, line)
	d.current = nil
}

// Fail stops the spinner and prints a failure line
func (d *Display) Fail(step StepInfo, err error) {
	d.StopSpinner()
	mark := failureMark(d.symbols, d.capabilities.SupportsColor)
	fmt.Fprintf(d.out, "%s %s %s failed: %v\n", mark, formatCounter(step.Number, step.Total), capitalize(step.Name), err)
	d.current = nil
}

// StopSpinner stops the spinner without printing a result
func (d *Display) StopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
