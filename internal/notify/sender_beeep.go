package notify

import (
	"github.com/gen2brain/beeep"
)

// beeepSender implements Sender using the cross-platform beeep library.
// Overdue notifications use beeep.Alert, which also plays the OS alert sound
// unless the notification is silent.
type beeepSender struct{}

func newBeeepSender() Sender {
	return &beeepSender{}
}

// SendVisual sends a notification using beeep.
func (s *beeepSender) SendVisual(n Notification) error {
	if n.Urgency() == UrgencyCritical && !n.Silent {
		return beeep.Alert(n.Title, n.Body, n.Icon)
	}
	return beeep.Notify(n.Title, n.Body, n.Icon)
}

// SendSound plays a short beep. beeep cannot play files, so the sound file
// and gain are ignored.
func (s *beeepSender) SendSound(_ string, _ float64) error {
	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}

// VisualAvailable returns true since beeep handles platform detection internally.
func (s *beeepSender) VisualAvailable() bool {
	return true
}

// SoundAvailable returns true since beeep handles platform detection internally.
func (s *beeepSender) SoundAvailable() bool {
	return true
}
