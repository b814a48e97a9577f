package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookshelf/internal/notifications"
	"bookshelf/internal/services"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled (set notifications.ntfy_topic)")
				return nil
			}
			err := notifications.NewService(cfg).Publish(cmd.Context(), notifications.EventTest, nil)
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "notifications", "test", "test notification failed", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
