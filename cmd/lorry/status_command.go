package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"lorry/internal/logging"
	"lorry/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database totals and recently issued receipts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			recordStore, err := store.Open(cfg, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}
			defer recordStore.Close()

			count, err := recordStore.Count(cmd.Context())
			if err != nil {
				return err
			}
			recent, err := recordStore.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Lorry", colorize) {
				fmt.Fprintln(out, line)
			}
			lockHeld := false
			if _, statErr := os.Stat(cfg.LockPath()); statErr == nil {
				lockHeld = true
			}
			fmt.Fprintln(out, renderStatusLine("Watch directory", statusInfo, cfg.Paths.WatchDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Database", statusInfo, cfg.DatabasePath(), colorize))
			fmt.Fprintln(out, renderStatusLine("Lock file present", statusInfo, yesNo(lockHeld), colorize))
			fmt.Fprintln(out, renderStatusLine("Records", statusOK, strconv.FormatInt(count, 10), colorize))
			fmt.Fprintln(out)

			if len(recent) == 0 {
				fmt.Fprintln(out, "No receipts recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(recent))
			for _, row := range recent {
				rows = append(rows, []string{row.ID, row.NaturalKey, row.CreatedAt})
			}
			fmt.Fprintln(out, renderTable([]string{"LR ID", "Invoice", "Created"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent receipts to show")
	return cmd
}
