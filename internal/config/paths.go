package config

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the config file name in both user and project locations.
const ConfigFileName = "config.yml"

// UserConfigPath returns the user-level config file. It follows
// os.UserConfigDir, so XDG_CONFIG_HOME is respected on Linux.
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// UserConfigDir returns the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "changeset"), nil
}

// ProjectConfigPath returns the project config file inside the changeset
// directory. It doubles as the store-level record the store never lists.
func ProjectConfigPath(projectDir, changesetDir string) string {
	if filepath.IsAbs(changesetDir) {
		return filepath.Join(changesetDir, ConfigFileName)
	}
	return filepath.Join(projectDir, changesetDir, ConfigFileName)
}
