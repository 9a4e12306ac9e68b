//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// DefaultMacOSSound plays when no custom chime is configured
const DefaultMacOSSound = "/System/Library/Sounds/Glass.aiff"

// darwinSender raises notifications with osascript and plays sound with afplay
type darwinSender struct {
	visualAvailable bool
	soundAvailable  bool
}

func newDarwinSender() Sender {
	return &darwinSender{
		visualAvailable: toolAvailable("osascript"),
		soundAvailable:  toolAvailable("afplay"),
	}
}

func newLinuxSender() Sender   { return &noopSender{} }
func newWindowsSender() Sender { return &noopSender{} }

// osascriptSource builds the AppleScript for n. The first body line (the
// task name) becomes the subtitle; overdue tasks use a harsher sound.
func osascriptSource(n Notification) string {
	subtitle, body, _ := strings.Cut(n.Body, "\n")
	src := fmt.Sprintf("display notification %q with title %q subtitle %q", body, n.Title, subtitle)
	if n.Silent {
		return src
	}
	sound := "Glass"
	if n.Kind == KindOverdue {
		sound = "Basso"
	}
	return src + fmt.Sprintf(" sound name %q", sound)
}

func (s *darwinSender) SendVisual(n Notification) error {
	if !s.visualAvailable {
		return nil
	}
	return exec.Command("osascript", "-e", osascriptSource(n)).Run()
}

func (s *darwinSender) SendSound(soundFile string, gain float64) error {
	if !s.soundAvailable {
		return nil
	}
	file := ValidateSoundFile(soundFile)
	if file == "" {
		file = DefaultMacOSSound
	}
	return exec.Command("afplay", "-v", fmt.Sprintf("%.2f", clampGain(gain)), file).Run()
}

func (s *darwinSender) VisualAvailable() bool { return s.visualAvailable }
func (s *darwinSender) SoundAvailable() bool  { return s.soundAvailable }
