// Package paths provides sudo-aware path resolution for animeparse.
//
// When running with sudo, these functions resolve to the original user's
// directories (via SUDO_USER) instead of root's.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const appName = "animeparse"

// UserHomeDir returns the home directory of the actual user.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, err := user.Lookup(sudoUser)
		if err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// UserConfigDir returns ~/.config for the actual user.
func UserConfigDir() (string, error) {
	homeDir, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config"), nil
}

// AppDir returns ~/.config/animeparse.
func AppDir() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// DatabasePath returns ~/.config/animeparse/history.db.
func DatabasePath() (string, error) {
	return inAppDir("history.db")
}

// ConfigPath returns ~/.config/animeparse/config.toml.
func ConfigPath() (string, error) {
	return inAppDir("config.toml")
}

// LogPath returns ~/.config/animeparse/logs/animeparse.log.
func LogPath() (string, error) {
	return inAppDir(filepath.Join("logs", appName+".log"))
}

// Expand replaces a leading "~" with the actual user's home directory.
func Expand(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

func inAppDir(name string) (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
