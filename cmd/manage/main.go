package main

import (
	"os"
	_ "time/tzdata"

	"github.com/kshaab/Coursework-5/cmd/manage/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "manage",
		Short:         "Administrative tasks for the habits backend",
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cmd.CreateSuperuserCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.RemindCmd())
	rootCmd.AddCommand(cmd.DeactivateInactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
