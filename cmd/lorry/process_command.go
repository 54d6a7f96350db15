package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lorry/internal/daemon"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Process a single spreadsheet without watching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return fmt.Errorf("source path is required")
			}
			absPath, err := filepath.Abs(source)
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				return fmt.Errorf("stat source file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source path %q is a directory", absPath)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			summary, err := d.Process(cmd.Context(), absPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %s\n", absPath)
			fmt.Fprintf(out, "  rows:   %d\n", summary.RowsSeen)
			fmt.Fprintf(out, "  valid:  %d\n", summary.ValidCount)
			fmt.Fprintf(out, "  errors: %d\n", summary.ErrorCount)
			if summary.OutputPath != "" {
				fmt.Fprintf(out, "  output: %s\n", summary.OutputPath)
			}
			return nil
		},
	}
}
