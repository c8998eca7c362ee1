package cmd

import (
	"fmt"

	"github.com/kshaab/Coursework-5/internal/app"
	"github.com/spf13/cobra"
)

func CreateSuperuserCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "csu",
		Short: "Create an active staff superuser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				user, err := a.UserService.CreateSuperuser(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "admin@example.com", "superuser email")
	cmd.Flags().StringVar(&password, "password", "123qwe", "superuser password")
	return cmd
}
