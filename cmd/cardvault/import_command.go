package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cardvault/internal/config"
	"cardvault/internal/importer"
	"cardvault/internal/media"
	"cardvault/internal/pipeline"
	"cardvault/internal/runctx"
)

type importFlags struct {
	primary string
	backup  string
	media   string
	mock    bool
	yes     bool
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy cards to the primary archive and move them to the backup",
		Long: `Import every camera file on the mounted cards.

Files are sorted by capture time and grouped into one directory per session
under each archive root. Files already archived are detected by content and
skipped. Cards are unmounted only when every transfer succeeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ApplyOverrides(config.Overrides{
				PrimaryDir: flags.primary,
				BackupDir:  flags.backup,
				MountRoot:  flags.media,
			}); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !flags.yes && !flags.mock && isTerminal(out) {
				proceed, err := confirmImport(cmd.InOrStdin(), out, cfg)
				if err != nil {
					return err
				}
				if !proceed {
					fmt.Fprintln(out, "Import cancelled")
					return nil
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := importer.Options{Mock: flags.mock, Plan: out}
			if isTerminal(out) {
				opts.Observers = []pipeline.Observer{newProgressObserver(cmd.ErrOrStderr())}
			}
			summary, runErr := importer.New(cfg, logger).Run(runCtx, opts)
			if summary != nil && len(summary.Reports) > 0 {
				fmt.Fprintln(out, renderImportSummary(summary, isTerminal(out)))
			}
			if runErr != nil && errors.Is(runErr, importer.ErrNothingToImport) {
				fmt.Fprintln(out, "Nothing to import")
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&flags.primary, "main", "", "Primary archive root (overrides archive.primary_dir)")
	cmd.Flags().StringVar(&flags.backup, "bak", "", "Backup archive root (overrides archive.backup_dir)")
	cmd.Flags().StringVar(&flags.media, "media", "", "Card mount root (overrides media.mount_root)")
	cmd.Flags().BoolVar(&flags.mock, "mock", false, "Plan the import without touching any file")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func confirmImport(in io.Reader, out io.Writer, cfg *config.Config) (bool, error) {
	cards, err := media.Discover(afero.NewOsFs(), cfg.Media.MountRoot, cfg.Media.User)
	if err != nil {
		return false, runctx.Wrap(runctx.ErrPrecondition, "import", "discover cards", cfg.Media.MountRoot, err)
	}
	if len(cards) == 0 {
		// Let the importer report the empty run.
		return true, nil
	}
	fmt.Fprintln(out, renderCardsTable(cards))
	fmt.Fprintf(out, "Import into %s and move to %s? [y/N] ", cfg.Archive.PrimaryDir, cfg.Archive.BackupDir)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
