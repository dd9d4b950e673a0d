// Package paths resolves where teamboard keeps its configuration and its
// embedded database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user configuration directory.
const AppName = "teamboard"

// Directory and file names.
const (
	DefaultDataDirName = ".teamboard-db"
	ConfigFileName     = "config.yaml"
	SnapshotDirName    = "snapshots"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TEAMBOARD_CONFIG_DIR"
	EnvDataDir   = "TEAMBOARD_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the per-user configuration directory:
// $XDG_CONFIG_HOME/teamboard or ~/.config/teamboard on Linux, and
// os.UserConfigDir()/teamboard elsewhere.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// TEAMBOARD_CONFIG_DIR, then DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstNonEmpty(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the SQLite data directory: flag, then the data_dir
// value from config.yaml, then TEAMBOARD_DATA_DIR, then .teamboard-db under
// the working directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstNonEmpty(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// SnapshotDir returns the default export directory inside dataDir.
func SnapshotDir(dataDir string) string {
	return filepath.Join(dataDir, SnapshotDirName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
