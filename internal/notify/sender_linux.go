//go:build linux

package notify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// linuxSender implements Sender for Linux using notify-send and paplay
type linuxSender struct {
	visualAvailable bool
	soundAvailable  bool
}

// newLinuxSender creates a new Linux notification sender
func newLinuxSender() Sender {
	return &linuxSender{
		visualAvailable: toolAvailable("notify-send") && hasDisplay(),
		soundAvailable:  toolAvailable("paplay"),
	}
}

func newDarwinSender() Sender  { return &noopSender{} }
func newWindowsSender() Sender { return &noopSender{} }

// hasDisplay reports whether an X11 or Wayland session is reachable
func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// notifySendArgs renders a notification as notify-send arguments
func notifySendArgs(n Notification) []string {
	args := []string{"-u", string(n.Urgency())}
	if n.AppName != "" {
		args = append(args, "-a", n.AppName)
	}
	if n.Icon != "" {
		args = append(args, "-i", n.Icon)
	}
	if n.RequireInteraction {
		args = append(args, "-t", "0")
	}
	if n.Silent {
		args = append(args, "-h", "boolean:suppress-sound:true")
	}
	if n.Image != "" {
		args = append(args, "-h", "string:image-path:"+n.Image)
	}
	if n.Kind != "" {
		args = append(args, "-c", "tasknotify."+string(n.Kind))
	}
	return append(args, n.Title, n.Body)
}

// SendVisual sends a visual notification using notify-send
func (s *linuxSender) SendVisual(n Notification) error {
	if !s.visualAvailable {
		return nil // graceful degradation
	}

	cmd := exec.Command("notify-send", notifySendArgs(n)...)
	return cmd.Run()
}

// SendVisualAwaitClick sends the notification with a default action and
// waits for notify-send to report how it was closed.
func (s *linuxSender) SendVisualAwaitClick(ctx context.Context, n Notification) (bool, error) {
	if !s.visualAvailable {
		return false, nil
	}

	args := append([]string{"--action=default=Open", "--wait"}, notifySendArgs(n)...)
	cmd := exec.CommandContext(ctx, "notify-send", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("notify-send: %w", err)
	}
	return strings.TrimSpace(out.String()) == "default", nil
}

// SendSound plays a sound using paplay
func (s *linuxSender) SendSound(soundFile string, gain float64) error {
	if !s.soundAvailable {
		return nil // graceful degradation
	}

	validatedFile := ValidateSoundFile(soundFile)

	// No default sound on Linux, skip if no valid custom file
	if validatedFile == "" {
		return nil
	}

	volume := int(clampGain(gain) * 65536)
	cmd := exec.Command("paplay", fmt.Sprintf("--volume=%d", volume), validatedFile)
	return cmd.Run()
}

// VisualAvailable returns true if notify-send is available and display is present
func (s *linuxSender) VisualAvailable() bool {
	return s.visualAvailable
}

// SoundAvailable returns true if paplay is available
func (s *linuxSender) SoundAvailable() bool {
	return s.soundAvailable
}
