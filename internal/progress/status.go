package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Status is a single status line for long-running commands. On a terminal
// it is a spinner whose text is replaced in place; elsewhere every change is
// printed on its own line.
type Status struct {
	mu           sync.Mutex
	capabilities TerminalCapabilities
	out          io.Writer
	spinner      *spinner.Spinner
	last         string
}

// NewStatus creates a status line writing to out; a nil out writes to stdout
func NewStatus(caps TerminalCapabilities, out io.Writer) *Status {
	if out == nil {
		out = os.Stdout
	}
	return &Status{capabilities: caps, out: out}
}

// Update replaces the status text. Repeated identical text is ignored.
func (s *Status) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg == s.last {
		return
	}
	s.last = msg

	if !s.capabilities.IsTTY {
		fmt.Fprintln(s.out, msg)
		return
	}
	if s.spinner == nil {
		writer := spinner.WithWriter(s.out)
		if f, ok := s.out.(*os.File); ok {
			writer = spinner.WithWriterFile(f)
		}
		s.spinner = spinner.New(spinner.CharSets[SelectSymbols(s.capabilities).SpinnerSet], 120*time.Millisecond, writer)
		s.spinner.Suffix = " " + msg
		s.spinner.Start()
		return
	}
	s.spinner.Lock()
	s.spinner.Suffix = " " + msg
	s.spinner.Unlock()
}

// Last returns the current status text
func (s *Status) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Stop clears the spinner
func (s *Status) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spinner != nil {
		s.spinner.Stop()
		s.spinner = nil
	}
}
