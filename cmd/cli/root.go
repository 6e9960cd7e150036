package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loansync-cli",
		Short: "CLI for operating the loansync ETL pipeline",
		Long:  "A command-line tool for triggering and inspecting loansync ingestion runs.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCLIConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().String("api-url", "http://localhost:8081", "loansync API base URL (versioned paths are appended if missing)")
	cmd.PersistentFlags().String("api-key", "", "Tenant API key, sent as X-API-Key")

	if err := bindCLIFlags(cmd); err != nil {
		cmd.PrintErrln(fmt.Sprintf("failed to bind flags: %v", err))
	}

	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newJobCommand())

	return cmd
}
