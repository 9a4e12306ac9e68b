package notify

import "time"

// Kind represents the urgency class of a notification
type Kind string

const (
	// KindDeadlineToday is a task whose deadline is later today
	KindDeadlineToday Kind = "deadline_today"
	// KindOverdue is a task whose deadline has passed
	KindOverdue Kind = "overdue"
	// KindInfo is an informational notification
	KindInfo Kind = "info"
)

// Urgency maps to the freedesktop urgency levels
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Urgency returns the OS urgency level used for the kind
func (k Kind) Urgency() Urgency {
	switch k {
	case KindOverdue:
		return UrgencyCritical
	case KindDeadlineToday:
		return UrgencyNormal
	default:
		return UrgencyLow
	}
}

// OutputType represents the notification output type
type OutputType string

const (
	// OutputSound sends only an audible notification
	OutputSound OutputType = "sound"
	// OutputVisual sends only a visual notification
	OutputVisual OutputType = "visual"
	// OutputBoth sends both sound and visual notifications
	OutputBoth OutputType = "both"
)

// ValidOutputType checks if the given string is a valid output type
func ValidOutputType(s string) bool {
	switch OutputType(s) {
	case OutputSound, OutputVisual, OutputBoth:
		return true
	default:
		return false
	}
}

// Sound reports whether the output type includes sound
func (o OutputType) Sound() bool {
	return o == OutputSound || o == OutputBoth
}

// Visual reports whether the output type includes a desktop notification
func (o OutputType) Visual() bool {
	return o == OutputVisual || o == OutputBoth
}

// Permission is the desktop notification permission state
type Permission string

const (
	// PermissionDefault means the user has not been asked yet
	PermissionDefault Permission = "default"
	// PermissionGranted allows notifications to be shown
	PermissionGranted Permission = "granted"
	// PermissionDenied suppresses all notifications
	PermissionDenied Permission = "denied"
)

// ValidPermission checks if the given string is a valid permission state
func ValidPermission(s string) bool {
	switch Permission(s) {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	default:
		return false
	}
}

// NotificationConfig holds user preferences for notification behavior.
// Configuration is loaded from the config hierarchy (env > local > global > defaults).
type NotificationConfig struct {
	// Enabled is the master switch for desktop notifications (default: true)
	Enabled bool `koanf:"enabled" yaml:"enabled" json:"enabled"`

	// Type specifies the notification output type: sound, visual, or both (default: both)
	Type OutputType `koanf:"type" yaml:"type" json:"type" validate:"omitempty,oneof=sound visual both"`

	// Backend selects the sender: auto, native, beeep or none (default: auto)
	Backend string `koanf:"backend" yaml:"backend" json:"backend" validate:"omitempty,oneof=auto native beeep none"`

	// Permission seeds the permission state: default, granted or denied (default: default)
	Permission Permission `koanf:"permission" yaml:"permission" json:"permission" validate:"omitempty,oneof=default granted denied"`

	// RequireInteraction keeps notifications on screen until dismissed (default: true)
	RequireInteraction bool `koanf:"require_interaction" yaml:"require_interaction" json:"require_interaction"`

	// Silent asks the OS not to play its own notification sound (default: false)
	Silent bool `koanf:"silent" yaml:"silent" json:"silent"`

	// IconToday is the icon shown for deadline-today notifications
	IconToday string `koanf:"icon_today" yaml:"icon_today" json:"icon_today"`

	// IconOverdue is the icon shown for overdue notifications
	IconOverdue string `koanf:"icon_overdue" yaml:"icon_overdue" json:"icon_overdue"`

	// Badge is the small monochrome badge icon
	Badge string `koanf:"badge" yaml:"badge" json:"badge"`

	// AppName is reported to the OS notification daemon (default: tasknotify)
	AppName string `koanf:"app_name" yaml:"app_name" json:"app_name"`
}

// DefaultConfig returns a NotificationConfig with default values
func DefaultConfig() NotificationConfig {
	return NotificationConfig{
		Enabled:            true,
		Type:               OutputBoth,
		Backend:            BackendAuto,
		Permission:         PermissionDefault,
		RequireInteraction: true,
		Silent:             false,
		IconToday:          "appointment-soon",
		IconOverdue:        "dialog-warning",
		Badge:              "",
		AppName:            "tasknotify",
	}
}

// Notification represents a single notification to raise
type Notification struct {
	// Title communicates the urgency class
	Title string
	// Body is the notification body text
	Body string
	// Kind is the urgency class
	Kind Kind
	// Icon is an icon name or image path
	Icon string
	// Badge is a small monochrome icon
	Badge string
	// Image is an optional large image
	Image string
	// Tag identifies the notification; equal tags replace each other
	Tag string
	// Renotify alerts again even when a notification with the same tag exists
	Renotify bool
	// RequireInteraction keeps the notification until the user acts
	RequireInteraction bool
	// Silent suppresses the OS notification sound
	Silent bool
	// Timestamp is when the underlying event was emitted
	Timestamp time.Time
	// Vibrate is the vibration pattern in milliseconds (on, off, on, ...)
	Vibrate []int
	// Data carries opaque values for click handling
	Data map[string]string
	// AppName is reported to the OS notification daemon
	AppName string
}

// Urgency returns the OS urgency of the notification
func (n Notification) Urgency() Urgency {
	return n.Kind.Urgency()
}

// NewNotification creates a new informational Notification
func NewNotification(title, body string, kind Kind) Notification {
	return Notification{
		Title: title,
		Body:  body,
		Kind:  kind,
	}
}
