package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// Backend names accepted by NewSender
const (
	BackendAuto   = "auto"
	BackendNative = "native"
	BackendBeeep  = "beeep"
	BackendNone   = "none"
)

// Sender delivers notifications and chimes through the host OS
type Sender interface {
	// SendVisual raises a desktop notification
	SendVisual(n Notification) error

	// SendSound plays an audio file at the given gain (0..1); an empty
	// file plays the platform default
	SendSound(soundFile string, gain float64) error

	// VisualAvailable reports whether the visual tool is present
	VisualAvailable() bool

	// SoundAvailable reports whether the playback tool is present
	SoundAvailable() bool
}

// ClickSender is implemented by senders that can report a click on the
// notification. SendVisualAwaitClick blocks until the notification is
// clicked, dismissed or ctx is cancelled.
type ClickSender interface {
	Sender
	SendVisualAwaitClick(ctx context.Context, n Notification) (clicked bool, err error)
}

// NewSender creates a notification sender for the given backend.
// BackendAuto picks the native sender when its visual tool is present and
// falls back to beeep otherwise.
func NewSender(backend string) Sender {
	switch backend {
	case BackendNone:
		return &noopSender{}
	case BackendBeeep:
		return newBeeepSender()
	case BackendNative:
		return nativeSender(runtime.GOOS)
	}

	if native := nativeSender(runtime.GOOS); native.VisualAvailable() {
		return native
	}
	return newBeeepSender()
}

// nativeSender returns the tool-based sender for goos. Only the sender for
// the build platform is real; the others are no-ops.
func nativeSender(goos string) Sender {
	switch goos {
	case "darwin":
		return newDarwinSender()
	case "linux":
		return newLinuxSender()
	case "windows":
		return newWindowsSender()
	default:
		return &noopSender{}
	}
}

// Platform returns the current operating system name
func Platform() string {
	return runtime.GOOS
}

func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

type noopSender struct{}

func (s *noopSender) SendVisual(_ Notification) error     { return nil }
func (s *noopSender) SendSound(_ string, _ float64) error { return nil }
func (s *noopSender) VisualAvailable() bool               { return false }
func (s *noopSender) SoundAvailable() bool                { return false }

// playableExtensions are the chime formats every native player handles
var playableExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".aiff": true,
	".aif":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
}

// errUnplayable marks a sound file with an unsupported extension
var errUnplayable = errors.New("unsupported audio format")

// checkSoundFile returns why soundFile cannot be played, or nil.
func checkSoundFile(soundFile string) error {
	info, err := os.Stat(soundFile)
	switch {
	case err != nil:
		return err
	case info.IsDir():
		return fmt.Errorf("%s is a directory", soundFile)
	case !SupportedSoundExtension(filepath.Ext(soundFile)):
		return fmt.Errorf("%w: %s", errUnplayable, filepath.Ext(soundFile))
	}
	return nil
}

// ValidateSoundFile returns soundFile when it can be played, or "" so the
// caller falls back to the platform default. Rejections are logged.
func ValidateSoundFile(soundFile string) string {
	if soundFile == "" {
		return ""
	}
	if err := checkSoundFile(soundFile); err != nil {
		log.Warn().Str("component", "notify").Str("file", soundFile).Err(err).
			Msg("custom sound unusable, falling back to default")
		return ""
	}
	return soundFile
}

// SupportedSoundExtension reports whether ext (with dot, any case) is a
// playable audio format
func SupportedSoundExtension(ext string) bool {
	return playableExtensions[strings.ToLower(ext)]
}

func clampGain(gain float64) float64 {
	return min(max(gain, 0), 1)
}
