package main

import (
	"context"
	"fmt"
	"strings"

	cliapi "github.com/jaxxstorm/loansync/internal/cli"
	"github.com/spf13/cobra"
)

func newSyncCommand() *cobra.Command {
	var category string
	var force bool
	var noForce bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a sync for a loan category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category == "" {
				return fmt.Errorf("category is required")
			}
			if cfg.APIKey == "" {
				return fmt.Errorf("api-key is required")
			}
			if force && noForce {
				return fmt.Errorf("force and no-force are mutually exclusive")
			}

			var forcePtr *bool
			switch {
			case force:
				v := true
				forcePtr = &v
			case noForce:
				v := false
				forcePtr = &v
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.APIKey)
			resp, err := client.TriggerSync(context.Background(), strings.ToUpper(category), forcePtr)
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render("Sync triggered"))
			cmd.Println(renderSyncResponse(*resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Loan category: commercial or retail")
	cmd.Flags().BoolVar(&force, "force", false, "Trigger even when no new upstream version is detected")
	cmd.Flags().BoolVar(&noForce, "no-force", false, "Skip the trigger unless a new upstream version is detected")

	return cmd
}
