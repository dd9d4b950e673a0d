package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/teamboard/internal/paths"
	"github.com/mesh-intelligence/teamboard/internal/snapshot"
)

var (
	flagExportDir string
	flagImportDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the store to JSONL snapshot files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, flagExportDir, "exported", (*snapshot.Snapshot).Export)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load JSONL snapshot files into an empty store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, flagImportDir, "imported", (*snapshot.Snapshot).Import)
	},
}

func init() {
	exportCmd.Flags().StringVar(&flagExportDir, "dir", "", "snapshot directory (default: <data-dir>/snapshots)")
	importCmd.Flags().StringVar(&flagImportDir, "dir", "", "snapshot directory (default: <data-dir>/snapshots)")
}

type snapshotFunc func(*snapshot.Snapshot, context.Context, string) (snapshot.Counts, error)

func runSnapshot(cmd *cobra.Command, dir, verb string, fn snapshotFunc) error {
	if dir == "" {
		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		dir = paths.SnapshotDir(dataDir)
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := fn(snapshot.New(store, log), cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return printResult(cmd.OutOrStdout(), counts, func(w io.Writer) {
		fmt.Fprintf(w, "%s %d users, %d projects, %d features, %d tasks (%s)\n",
			verb, counts.Users, counts.Projects, counts.Features, counts.Tasks, dir)
		if counts.Skipped > 0 {
			fmt.Fprintf(w, "skipped %d malformed lines\n", counts.Skipped)
		}
	})
}
