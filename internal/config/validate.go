package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	FilePath string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	path := e.FilePath
	if path == "" {
		path = "config"
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

// ValidateConfigValues checks constraints the struct tags cannot express.
// Returns nil if valid, or a ValidationError with field information if invalid.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			FilePath: filePath,
			Field:    "api_url",
			Message:  "must be an http or https URL",
		}
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return &ValidationError{
				FilePath: filePath,
				Field:    "timezone",
				Message:  fmt.Sprintf("unknown time zone %q", cfg.Timezone),
			}
		}
	}

	// Sound file: if specified, must exist
	if cfg.Sound.File != "" {
		info, err := os.Stat(cfg.Sound.File)
		if err != nil {
			if os.IsNotExist(err) {
				return &ValidationError{
					FilePath: filePath,
					Field:    "sound.file",
					Message:  fmt.Sprintf("file does not exist: %s", cfg.Sound.File),
				}
			}
			return &ValidationError{
				FilePath: filePath,
				Field:    "sound.file",
				Message:  fmt.Sprintf("cannot access file: %s", err),
			}
		}
		if info.IsDir() {
			return &ValidationError{
				FilePath: filePath,
				Field:    "sound.file",
				Message:  fmt.Sprintf("is a directory: %s", cfg.Sound.File),
			}
		}
	}

	return nil
}
