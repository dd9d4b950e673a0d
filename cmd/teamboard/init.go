package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize teamboard configuration and storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}

		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		out := struct {
			ConfigDir string `json:"config_dir"`
			DataDir   string `json:"data_dir,omitempty"`
			Backend   string `json:"backend"`
		}{configDir, dataDir, cfg.Store.Backend}
		return printResult(cmd.OutOrStdout(), out, func(w io.Writer) {
			fmt.Fprintln(w, "Teamboard initialized successfully")
			fmt.Fprintln(w, "  config: ", configDir)
			fmt.Fprintln(w, "  backend:", cfg.Store.Backend)
			fmt.Fprintln(w, "  data:   ", dataDir)
		})
	},
}
