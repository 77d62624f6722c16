// Package paths locates imsg's own files. Everything lives under ~/.imsg
// unless IMSG_HOME points elsewhere.
package paths

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory when set.
const HomeEnv = "IMSG_HOME"

// BaseDir returns $IMSG_HOME, or ~/.imsg.
func BaseDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".imsg")
}

// ConfigPath returns the config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// StateDBPath returns the app-owned state database path.
func StateDBPath() string {
	return filepath.Join(BaseDir(), "state.db")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the log file for a binary, e.g. logs/imsgtui.log.
func LogPath(component string) string {
	return filepath.Join(LogDir(), component+".log")
}

// EnsureDir creates the directory tree with owner-only permissions.
func EnsureDir() error {
	for _, d := range []string{BaseDir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
