package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cardvault/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow    bool
		lines     int
		runID     string
		component string
		level     string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the cardvault log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{
				RunID:     strings.TrimSpace(runID),
				Component: strings.TrimSpace(component),
			}
			if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("invalid --level %q: %w", level, err)
			}

			out := cmd.OutOrStdout()
			entries, offset, err := logs.Last(cfg.LogPath(), lines, filter)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintln(out, entry.Line())
			}
			if !follow {
				if len(entries) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}
			return logs.Follow(cmd.Context(), cfg.LogPath(), offset, filter, logs.DefaultPoll, func(entry logs.Entry) {
				fmt.Fprintln(out, entry.Line())
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Only show entries for this import run id")
	cmd.Flags().StringVar(&component, "component", "", "Only show entries from this component")
	cmd.Flags().StringVar(&level, "level", slog.LevelInfo.String(), "Minimum level to show (debug, info, warn, error)")
	return cmd
}
