package fsutil

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the user's data and config dirs.
const AppName = "apprepo"

// GetDataDir returns the data directory used as the default repository root:
// /var/lib/apprepo for root, $XDG_DATA_HOME/apprepo or ~/.local/share/apprepo otherwise.
func GetDataDir() (string, error) {
	if os.Geteuid() == 0 {
		return filepath.Join("/var/lib", AppName), nil
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// GetConfigDir returns the directory holding the configuration file.
func GetConfigDir() (string, error) {
	if os.Geteuid() == 0 {
		return filepath.Join("/etc", AppName), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
