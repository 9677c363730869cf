package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cardvault/internal/media"
)

func newCardsCommand(ctx *commandContext) *cobra.Command {
	var showFiles bool

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List mounted camera cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cards, err := media.Discover(afero.NewOsFs(), cfg.Media.MountRoot, cfg.Media.User)
			if err != nil {
				return fmt.Errorf("discover cards: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintf(out, "No cards mounted under %s\n", cfg.Media.MountRoot)
				return nil
			}
			fmt.Fprintln(out, renderCardsTable(cards))
			if showFiles {
				for _, path := range media.AllFiles(cards) {
					fmt.Fprintln(out, path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showFiles, "files", false, "Also list every camera file")
	return cmd
}
