package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Settings holds the user-tunable configuration, persisted as YAML in the
// platform config directory. Zero values fall back to the defaults below on load.
type Settings struct {
	Language   string `yaml:"language"`
	BookPath   string `yaml:"book_path"`
	ServerPort string `yaml:"server_port"`
	WindowDays int    `yaml:"window_days"`

	// ReminderTrigger is an optional ISO8601 duration (e.g. "-P1D") attached
	// as a VALARM to every exported calendar event. Empty disables reminders.
	ReminderTrigger string `yaml:"reminder_trigger"`
}

// DefaultSettings returns the settings used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Language:   DefaultLanguage,
		BookPath:   DefaultBookFile,
		ServerPort: DefaultPort,
		WindowDays: DefaultWindowDays,
	}
}

// SettingsPath determines the platform-specific location of the settings file,
// creating the application directory if needed.
func SettingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}

	appDir := filepath.Join(configDir, AppID)
	if err := os.MkdirAll(appDir, DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	return filepath.Join(appDir, SettingsFileName), nil
}

// LoadSettings reads the settings file at path. A missing file is not an
// error: the defaults are returned so a first run works out of the box.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug(MsgSettingsFresh, LogKeyComponent, CompMain, LogKeyFile, path)
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}

	s.normalize()
	return s, nil
}

// SaveSettings writes the settings as YAML with owner-only permissions.
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, FilePermUserRW)
}

// normalize replaces empty or out-of-range fields with their defaults.
func (s *Settings) normalize() {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.BookPath == "" {
		s.BookPath = DefaultBookFile
	}
	if err := ValidatePort(s.ServerPort); err != nil {
		s.ServerPort = DefaultPort
	}
	if s.WindowDays <= 0 {
		s.WindowDays = DefaultWindowDays
	}
}

// ValidatePort checks that the port string is a number within [MinPort, MaxPort].
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}
