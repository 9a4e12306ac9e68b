//go:build windows

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// windowsSender raises toast notifications and plays sound through PowerShell
type windowsSender struct {
	available bool
}

func newWindowsSender() Sender {
	return &windowsSender{available: toolAvailable("powershell")}
}

func newDarwinSender() Sender { return &noopSender{} }
func newLinuxSender() Sender  { return &noopSender{} }

const toastTemplate = `[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
$xml.LoadXml('<toast scenario="%s"><visual><binding template="ToastGeneric"><text>%s</text><text>%s</text></binding></visual>%s</toast>')
$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
$toast.Tag = '%s'
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('%s').Show($toast)`

// toastScript builds the PowerShell that shows n. Notifications that require
// interaction use the reminder scenario so they stay until dismissed.
func toastScript(n Notification) string {
	appName := n.AppName
	if appName == "" {
		appName = "tasknotify"
	}
	scenario := "default"
	if n.RequireInteraction {
		scenario = "reminder"
	}
	audio := ""
	if n.Silent {
		audio = `<audio silent="true"/>`
	}
	return fmt.Sprintf(toastTemplate,
		scenario,
		psQuote(xmlEscape(n.Title)),
		psQuote(xmlEscape(n.Body)),
		audio,
		psQuote(toastTag(n.Tag)),
		psQuote(appName),
	)
}

func soundScript(file string) string {
	if file == "" {
		return "[Console]::Beep(800, 200)"
	}
	return fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", psQuote(file))
}

func powershell(script string) error {
	return exec.Command("powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-Command", script).Run()
}

func (s *windowsSender) SendVisual(n Notification) error {
	if !s.available {
		return nil
	}
	return powershell(toastScript(n))
}

// SendSound plays file with SoundPlayer, which has no volume control; gain
// is ignored.
func (s *windowsSender) SendSound(soundFile string, _ float64) error {
	if !s.available {
		return nil
	}
	return powershell(soundScript(ValidateSoundFile(soundFile)))
}

func (s *windowsSender) VisualAvailable() bool { return s.available }
func (s *windowsSender) SoundAvailable() bool  { return s.available }

// psQuote escapes s for a single-quoted PowerShell string
func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}

// toastTag keeps the last 64 characters, the limit for toast tags
func toastTag(tag string) string {
	if len(tag) > 64 {
		return tag[len(tag)-64:]
	}
	return tag
}
