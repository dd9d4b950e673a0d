package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/teamboard/internal/engine"
)

var errViolations = errors.New("consistency violations found")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify store consistency",
	Long: `Check reads the whole store in one transaction and reports every
broken consistency rule: dangling references, feature cycles, and mismatched
assignment indexes. It exits 1 when any violation is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		violations, err := engine.New(store, engine.Options{Log: log}).Check(cmd.Context())
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
		if violations == nil {
			violations = []engine.Violation{}
		}
		err = printResult(cmd.OutOrStdout(), violations, func(w io.Writer) {
			if len(violations) == 0 {
				fmt.Fprintln(w, "ok: no violations")
				return
			}
			for _, v := range violations {
				fmt.Fprintln(w, v.String())
			}
		})
		if err != nil {
			return err
		}
		if len(violations) > 0 {
			return fmt.Errorf("%w: %d", errViolations, len(violations))
		}
		return nil
	},
}
