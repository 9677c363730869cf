package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cardvault/internal/deps"
	"cardvault/internal/preflight"
)

const statusLabelWidth = 20

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external programs and archive roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			fmt.Fprintln(out, paint(colorize, color.FgBlue, "== Dependencies =="))
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, r := range preflight.CheckDependencies(statuses) {
				writeResult(out, r, colorize)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, paint(colorize, color.FgBlue, "== Archives =="))
			archives := []preflight.Result{
				preflight.CheckArchiveRoot("Primary archive", cfg.Archive.PrimaryDir, cfg.Archive.PrimaryMarker, true),
				preflight.CheckArchiveRoot("Backup archive", cfg.Archive.BackupDir, cfg.Archive.BackupMarker, true),
			}
			for _, r := range archives {
				writeResult(out, r, colorize)
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required program(s) missing", len(missing))
			}
			return nil
		},
	}
}

func writeResult(out io.Writer, r preflight.Result, colorize bool) {
	label, attr := "OK", color.FgGreen
	switch {
	case !r.Passed && r.Advisory:
		label, attr = "WARN", color.FgYellow
	case !r.Passed:
		label, attr = "ERROR", color.FgRed
	}
	line := fmt.Sprintf("  %-*s [%s] %s", statusLabelWidth, r.Name+":", label, r.Detail)
	fmt.Fprintln(out, paint(colorize, attr, line))
}
