package errors

import (
	"fmt"
)

// MissingEmployeeID is returned when no employee identity can be resolved
func MissingEmployeeID() *CLIError {
	return &CLIError{
		Category: Prerequisite,
		Message:  "no employee identity is signed in",
		Remediation: []string{
			"Run 'tasknotify login <employee-id>'",
			"Or pass --employee <employee-id>",
			"Or set TASKNOTIFY_EMPLOYEE_ID for this session",
		},
	}
}

// MissingLoginArgument is returned when login is called without an ID
func MissingLoginArgument() *CLIError {
	return NewArgumentErrorWithUsage(
		"employee ID is required",
		"tasknotify login <employee-id>",
		"Use the ID shown on your CRM profile page",
	)
}

// ConfigFileNotFound is returned when an explicit --config file is missing
func ConfigFileNotFound(path string) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("config file not found: %s", path),
		Remediation: []string{
			"Check the --config path",
			"Omit --config to use ~/.tasknotify/config.json",
		},
	}
}

// InvalidConfig is returned when configuration fails to load or validate
func InvalidConfig(err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("invalid configuration: %v", err),
		Err:      err,
		Remediation: []string{
			"Check ~/.tasknotify/config.json and any --config file",
			"Check TASKNOTIFY_* environment variables",
			"Run 'tasknotify doctor' to see which setting is rejected",
		},
	}
}

// APIUnreachable is returned when the task API cannot be reached
func APIUnreachable(apiURL string, err error) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  fmt.Sprintf("cannot reach task API at %s: %v", apiURL, err),
		Err:      err,
		Remediation: []string{
			"Check api_url in your configuration",
			"Check your network connection",
			"If the API requires a token, set api_token",
		},
	}
}

// NotificationsUnavailable is returned when no visual backend works
func NotificationsUnavailable(platform string) *CLIError {
	return &CLIError{
		Category: Prerequisite,
		Message:  fmt.Sprintf("no desktop notification backend available on %s", platform),
		Remediation: []string{
			"On Linux install libnotify (notify-send) and run inside a graphical session",
			"Or set notifications.backend to 'beeep'",
		},
	}
}

// FileNotWritable is returned when a state file cannot be written
func FileNotWritable(path string) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  fmt.Sprintf("cannot write %s", path),
		Remediation: []string{
			"Check the permissions of the parent directory",
			"Set state_dir to a writable location",
		},
	}
}
