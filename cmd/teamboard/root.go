package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/teamboard/internal/paths"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// cfg holds the settings loaded by PersistentPreRunE.
var cfg settings

var rootCmd = &cobra.Command{
	Use:          "teamboard",
	Short:        "Teamboard tracks projects, feature trees and task assignments",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		cfg, err = settingsFrom(v)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: ~/.config/teamboard)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.teamboard-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// resolveDataDir applies --data-dir > config.yaml data_dir >
// TEAMBOARD_DATA_DIR > $(CWD)/.teamboard-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, cfg.Store.DataDir)
}

// resolveConfigDir applies --config-dir > TEAMBOARD_CONFIG_DIR > the
// platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
