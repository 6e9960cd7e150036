package main

import (
	"context"
	"fmt"

	cliapi "github.com/jaxxstorm/loansync/internal/cli"
	"github.com/spf13/cobra"
)

func newJobCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect sync jobs",
	}

	cmd.AddCommand(newJobGetCommand())

	return cmd
}

func newJobGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [job-id]",
		Short: "Get the status of a sync job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.APIKey == "" {
				return fmt.Errorf("api-key is required")
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			job, err := client.GetJob(context.Background(), args[0])
			if err != nil {
				return err
			}

			cmd.Println(renderJobResponse(*job))
			return nil
		},
	}

	return cmd
}
