package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "TASKNOTIFY_"

// SoundConfig configures the notification chime
type SoundConfig struct {
	// File is the chime to decode and play; empty uses the platform default
	File string `koanf:"file"`
	// Gain is the playback volume between 0 and 1
	Gain float64 `koanf:"gain" validate:"min=0,max=1"`
}

// Configuration represents the tasknotify configuration.
// Durations are in milliseconds; NotificationInterval is informational only.
type Configuration struct {
	APIURL               string                    `koanf:"api_url" validate:"required,url"`
	APIToken             string                    `koanf:"api_token"`
	RequestTimeout       int                       `koanf:"request_timeout" validate:"min=0"`
	FetchInterval        int                       `koanf:"fetch_interval" validate:"min=1000"`
	NotificationInterval int                       `koanf:"notification_interval" validate:"min=0"`
	EnableDebug          bool                      `koanf:"enable_debug"`
	Timezone             string                    `koanf:"timezone"`
	StateDir             string                    `koanf:"state_dir" validate:"required"`
	LogFormat            string                    `koanf:"log_format" validate:"omitempty,oneof=console json"`
	Notifications        notify.NotificationConfig `koanf:"notifications"`
	Sound                SoundConfig               `koanf:"sound"`
}

// Load loads configuration from global, local, and environment sources
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	// Apply defaults first
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	// Load global config if it exists
	if globalPath, err := GlobalConfigPath(); err == nil {
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load global config: %w", err)
			}
		}
	}

	// Load local config; an explicitly named file must exist
	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
		if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.Sound.File = expandHomePath(cfg.Sound.File)

	if err := ValidateConfigValues(&cfg, localConfigPath); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// nestedSections are the config sections addressable from the environment,
// e.g. TASKNOTIFY_NOTIFICATIONS_BACKEND -> notifications.backend
var nestedSections = []string{"notifications", "sound"}

// envTransform converts environment variable names to config keys
// Example: TASKNOTIFY_FETCH_INTERVAL -> fetch_interval
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range nestedSections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// GlobalDir returns ~/.tasknotify
func GlobalDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tasknotify"), nil
}

// GlobalConfigPath returns ~/.tasknotify/config.json
func GlobalConfigPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// FetchEvery returns the poll period
func (c *Configuration) FetchEvery() time.Duration {
	return time.Duration(c.FetchInterval) * time.Millisecond
}

// NotifyEvery returns the informational notification interval
func (c *Configuration) NotifyEvery() time.Duration {
	return time.Duration(c.NotificationInterval) * time.Millisecond
}

// Timeout returns the per-request API timeout
func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// Location resolves Timezone, falling back to the local zone
func (c *Configuration) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
