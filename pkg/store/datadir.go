package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "daybook"

// DefaultDataDir returns the per-OS directory that holds the database, the
// config file, and the log.
//
//   - macOS:   ~/Library/Application Support/daybook
//   - Linux:   $XDG_DATA_HOME/daybook (fallback ~/.local/share/daybook)
//   - Windows: %LOCALAPPDATA%\daybook (fallback %APPDATA%\daybook)
func DefaultDataDir() string {
	return defaultDataDirForOS(runtime.GOOS)
}

func defaultDataDirForOS(goos string) string {
	switch goos {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appDirName)
	case "windows":
		for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				return filepath.Join(dir, appDirName)
			}
		}
		return filepath.Join(homeDir(), appDirName)
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
		return filepath.Join(homeDir(), ".local", "share", appDirName)
	}
}
