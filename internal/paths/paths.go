// Package paths resolves where daybook keeps its configuration, its data and
// its exported files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "daybook"

// ExportDirName is the default export subdirectory of the data directory.
const ExportDirName = "exports"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DAYBOOK_CONFIG_DIR"
	EnvDataDir   = "DAYBOOK_DATA_DIR"
	EnvExportDir = "DAYBOOK_EXPORT_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/daybook (fallback ~/.config/daybook)
// Others:  os.UserConfigDir()/daybook
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/daybook (fallback ~/.local/share/daybook)
// Others:  os.UserConfigDir()/daybook
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if platformDir.goos == "linux" {
		if xdg := os.Getenv(env); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeRel, AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > DAYBOOK_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config.yaml value > DAYBOOK_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	return firstAbs(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// ResolveExportDir returns the directory exports are written to:
// flag > config.yaml value > DAYBOOK_EXPORT_DIR > <dataDir>/exports.
func ResolveExportDir(flag, configValue, dataDir string) (string, error) {
	return firstAbs(func() (string, error) {
		return filepath.Join(dataDir, ExportDirName), nil
	}, flag, configValue, os.Getenv(EnvExportDir))
}

// firstAbs returns the first non-empty candidate made absolute, or the
// fallback when all are empty.
func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	dir, err := fallback()
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}
