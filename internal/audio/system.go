package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/notify"
)

// fileBuffer is a decoded asset materialised on disk for the OS player.
type fileBuffer struct {
	path     string
	duration time.Duration
}

func (b *fileBuffer) Duration() time.Duration { return b.duration }

// SystemDevice plays sounds through a notify.Sender (paplay, afplay,
// PowerShell or a beep). It reports itself suspended while the sender has
// no working sound tool, which keeps the engine waiting for a gesture.
type SystemDevice struct {
	sender notify.Sender
	dir    string
	tmp    string
}

// NewSystemDevice returns a device that writes decoded assets under dir
// (os.TempDir when empty).
func NewSystemDevice(sender notify.Sender, dir string) *SystemDevice {
	return &SystemDevice{sender: sender, dir: dir}
}

func (d *SystemDevice) state() DeviceState {
	if d.sender != nil && d.sender.SoundAvailable() {
		return DeviceRunning
	}
	return DeviceSuspended
}

// Open implements Device.
func (d *SystemDevice) Open() (DeviceState, error) {
	if d.sender == nil {
		return DeviceSuspended, fmt.Errorf("no sound backend configured")
	}
	return d.state(), nil
}

// Resume implements Device.
func (d *SystemDevice) Resume() (DeviceState, error) {
	return d.state(), nil
}

// Decode implements Device. WAV data is checked and timed; other formats
// are accepted by extension.
func (d *SystemDevice) Decode(name string, data []byte) (Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty sound asset %q", name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !notify.SupportedSoundExtension(ext) {
		return nil, fmt.Errorf("unsupported sound format %q", ext)
	}
	var duration time.Duration
	if ext == ".wav" {
		info, err := parseWAV(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", name, err)
		}
		duration = time.Duration(float64(info.DataLen) / float64(info.ByteRate) * float64(time.Second))
	}

	if d.tmp == "" {
		tmp, err := os.MkdirTemp(d.dir, "tasknotify-sound-")
		if err != nil {
			return nil, fmt.Errorf("creating sound directory: %w", err)
		}
		d.tmp = tmp
	}

	path := filepath.Join(d.tmp, "chime"+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing decoded sound: %w", err)
	}
	return &fileBuffer{path: path, duration: duration}, nil
}

// Play implements Device.
func (d *SystemDevice) Play(buf Buffer, gain float64) error {
	fb, ok := buf.(*fileBuffer)
	if !ok {
		return fmt.Errorf("unexpected buffer type %T", buf)
	}
	return d.sender.SendSound(fb.path, gain)
}

// Close implements Device and removes decoded files.
func (d *SystemDevice) Close() error {
	if d.tmp == "" {
		return nil
	}
	err := os.RemoveAll(d.tmp)
	d.tmp = ""
	return err
}
