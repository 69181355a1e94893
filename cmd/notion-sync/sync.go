package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notion-mdx-sync/internal/models"
)

func syncCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write synthetic records without calling Notion")

	return cmd
}

func runSync(cmd *cobra.Command, dryRun bool) error {
	cfg, err := loadConfig(dryRun)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	_, report, err := a.services.Run.RunNow(cmd.Context(), models.TriggerCLI, cfg.Sync.DryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[sync-notion] total=%d created=%d updated=%d unchanged=%d\n",
		report.Total, report.Created, report.Updated, report.Unchanged)
	return nil
}
