package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file,
// following the XDG Base Directory Specification:
// - Linux: ~/.config/landfall/config.yml
// - macOS: ~/Library/Application Support/landfall/config.yml
// - Windows: %APPDATA%\landfall\config.yml
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "landfall", "config.yml"), nil
}

// ProjectConfigPath returns the path to the project-level config file,
// always .landfall/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(".landfall", "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".landfall"
}

// LegacyProjectConfigPath returns the path to the legacy project-level
// JSON config file, .landfall/config.json.
func LegacyProjectConfigPath() string {
	return filepath.Join(".landfall", "config.json")
}
