// Package paths resolves per-user locations for uaparser files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const configFileName = "config.yaml"

// ConfigDir returns the config directory for uaparser.
// Order: XDG_CONFIG_HOME/uaparser, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "uaparser")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "uaparser")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "uaparser")
}

// ConfigFile returns the config file read when --config is not given.
// The file is optional.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}
