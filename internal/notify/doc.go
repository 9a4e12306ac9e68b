// Package notify provides desktop notification support for tasknotify.
//
// The notify package turns task deadline events into desktop notifications.
// It supports the three major operating systems using native OS tools called
// through os/exec, with github.com/gen2brain/beeep as a cross-platform
// fallback backend.
//
// # Features
//
//   - Visual notifications via native OS notification systems or beeep
//   - Audio playback of a sound file via system sound tools
//   - Per-class presentation: deadline-today and overdue notifications carry
//     distinct titles, icons, urgency and vibration patterns
//   - A permission model (default, granted, denied) requested once per user
//   - Click reporting on Linux through the notify-send default action
//   - Graceful degradation when notification tools are unavailable
//
// # Platform Support
//
//   - macOS: osascript for visual notifications, afplay for sound
//   - Linux: notify-send for visual notifications, paplay for sound
//   - Windows: PowerShell for toast notifications and sound
//
// # Usage
//
//	sender := notify.NewSender(notify.BackendAuto)
//	center := notify.NewCenter(sender, store, notify.PermissionDefault)
//	center.RequestPermission()
//	n := notify.TaskNotification(notify.KindOverdue, t, 2, time.Now(), notify.DefaultConfig())
//	shown, err := center.Show(n, onClick)
package notify
