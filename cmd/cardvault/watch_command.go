package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cardvault/internal/importer"
	"cardvault/internal/logging"
	"cardvault/internal/notifications"
	"cardvault/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settle time.Duration
	var mock bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import automatically whenever a card is inserted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.WatchLockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another cardvault watch is already running")
			}
			defer func() { _ = lock.Unlock() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			imp := importer.New(cfg, logger)
			notifier := notifications.NewService(cfg)
			handler := func(ctx context.Context, devices []string) error {
				started := time.Now()
				summary, err := imp.Run(ctx, importer.Options{Mock: mock, Plan: out})
				if summary != nil && len(summary.Reports) > 0 {
					fmt.Fprintln(out, renderImportSummary(summary, isTerminal(out)))
				}
				if notifyErr := publishImport(ctx, notifier, summary, err, time.Since(started)); notifyErr != nil {
					logging.WarnWithContext(logger, "notification failed", "notification_failed",
						logging.Error(notifyErr),
						logging.String(logging.FieldImpact, "import result was not pushed"),
						logging.String(logging.FieldErrorHint, "run cardvault test-notify to check notifications.ntfy_topic"),
					)
				}
				if errors.Is(err, importer.ErrNothingToImport) {
					// The device may not be mounted yet, or holds no DCIM tree.
					logger.Info("no camera files on inserted media",
						logging.Any("devices", devices),
					)
					return nil
				}
				return err
			}
			return watch.New(handler, settle, logger).Run(runCtx)
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "Quiet period after the last device event before importing")
	cmd.Flags().BoolVar(&mock, "mock", false, "Plan imports without touching any file")
	return cmd
}
