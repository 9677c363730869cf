package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cardvault/internal/importer"
	"cardvault/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc := notifications.NewService(cfg)
			if !svc.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled (notifications.ntfy_topic is empty)")
				return nil
			}
			if err := svc.Publish(cmd.Context(), notifications.EventTest, notifications.Payload{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}

// publishImport reports the outcome of an unattended import. Runs that found
// nothing, mock runs, and cancelled runs are not published.
func publishImport(ctx context.Context, svc notifications.Service, summary *importer.Summary, runErr error, elapsed time.Duration) error {
	if summary == nil || summary.Mock {
		return nil
	}
	if errors.Is(runErr, importer.ErrNothingToImport) || errors.Is(runErr, context.Canceled) {
		return nil
	}
	payload := notifications.Payload{
		Cards:   len(summary.Cards),
		Files:   summary.Files,
		Failed:  summary.FailureCount(),
		Elapsed: elapsed,
		Err:     runErr,
	}
	if len(summary.Reports) > 0 {
		primary := summary.Reports[0]
		payload.Transferred = primary.Transferred
		payload.Bytes = primary.Bytes
	}
	event := notifications.EventImportCompleted
	if runErr != nil {
		event = notifications.EventImportFailed
	}
	return svc.Publish(context.WithoutCancel(ctx), event, payload)
}
