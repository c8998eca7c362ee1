package cmd

import (
	"fmt"
	"time"

	"github.com/kshaab/Coursework-5/internal/app"
	"github.com/spf13/cobra"
)

func RemindCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder scan now",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed
			}

			return withApp(func(a *app.App) error {
				result, err := a.ReminderService.Dispatch(cmd.Context(), now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "matched %d, sent %d, skipped %d, failed %d\n",
					result.Matched, result.Sent, result.Skipped, result.Failed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "scan as of this RFC 3339 time instead of now")
	return cmd
}

func DeactivateInactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate-inactive",
		Short: "Deactivate users who have not logged in recently",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				n, err := a.UserService.DeactivateInactive(cmd.Context(), a.Cfg.InactiveUserAfter)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deactivated %d users\n", n)
				return nil
			})
		},
	}
}
