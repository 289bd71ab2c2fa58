package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/bindery/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the end of the bindery log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			var minLevel slog.Level
			if err := minLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
				return fmt.Errorf("invalid --level %q: %w", level, err)
			}

			raw, err := logtail.Tail(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(raw) == 0 {
				fmt.Fprintf(out, "No log entries in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range logtail.FormatLines(raw, minLevel, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of log lines to read (0 for all)")
	cmd.Flags().StringVar(&level, "level", "debug", "Hide records below this level")
	return cmd
}
