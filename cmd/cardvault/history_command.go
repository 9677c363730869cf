package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cardvault/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent imports, or the transfers of one import",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("no import with id %s", args[0])
				}
				transfers, err := store.Transfers(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTransfers(transfers, colorize))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No imports recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs, colorize))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of imports to show")
	return cmd
}

func renderRuns(runs []ledger.Run, colorize bool) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			paintStatus(colorize, run.Status),
			yesNo(run.Mock),
			strconv.Itoa(run.Cards),
			strconv.Itoa(run.Files),
			strconv.Itoa(run.Transferred),
			strconv.Itoa(run.AlreadyPresent),
			strconv.Itoa(run.Failed),
			humanize.IBytes(uint64(run.Bytes)),
		})
	}
	return tableSpec{
		headers: []string{"Run", "Started", "Status", "Mock", "Cards", "Files", "Written", "Present", "Failed", "Size"},
		rows:    rows,
		right:   []int{4, 5, 6, 7, 8, 9},
	}.render()
}

func renderTransfers(transfers []ledger.Transfer, colorize bool) string {
	rows := make([][]string, 0, len(transfers))
	for _, t := range transfers {
		outcome := string(t.Outcome)
		if t.Outcome == ledger.OutcomeFailed {
			outcome = paint(colorize, color.FgRed, outcome+": "+t.Error)
		}
		rows = append(rows, []string{t.Phase, t.Source, t.Destination, outcome})
	}
	return tableSpec{
		headers: []string{"Phase", "Source", "Destination", "Outcome"},
		rows:    rows,
	}.render()
}

func paintStatus(colorize bool, status ledger.RunStatus) string {
	switch status {
	case ledger.RunCompleted:
		return paint(colorize, color.FgGreen, string(status))
	case ledger.RunFailed, ledger.RunAborted:
		return paint(colorize, color.FgRed, string(status))
	default:
		return paint(colorize, color.FgYellow, string(status))
	}
}
