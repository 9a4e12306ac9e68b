package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"api_url":                           "http://localhost:8080/api",
		"api_token":                         "",
		"request_timeout":                   15000,
		"fetch_interval":                    60000,
		"notification_interval":             300000,
		"enable_debug":                      false,
		"timezone":                          "",
		"state_dir":                         "~/.tasknotify/state",
		"log_format":                        "console",
		"notifications.enabled":             true,
		"notifications.type":                "both",
		"notifications.backend":             "auto",
		"notifications.permission":          "default",
		"notifications.require_interaction": true,
		"notifications.silent":              false,
		"notifications.icon_today":          "appointment-soon",
		"notifications.icon_overdue":        "dialog-warning",
		"notifications.badge":               "",
		"notifications.app_name":            "tasknotify",
		"sound.file":                        "",
		"sound.gain":                        0.8,
	}
}
