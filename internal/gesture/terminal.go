package gesture

import (
	"bufio"
	"context"
	"io"
	"os"

	"golang.org/x/term"
)

// Interactive reports whether stdin is a terminal a user can press keys in.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ForwardKeys emits a keydown on bus for every line read from r until r is
// exhausted or ctx is done. Line-buffered input means Enter is the gesture.
func ForwardKeys(ctx context.Context, r io.Reader, bus *Bus) error {
	lines := make(chan struct{})
	errc := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-lines:
			bus.Emit(KindKeydown)
		case err := <-errc:
			return err
		}
	}
}
