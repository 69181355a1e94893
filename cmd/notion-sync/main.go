// Command notion-sync materializes a Notion database as .mdx files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notion-mdx-sync/internal/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "notion-sync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[sync-notion] %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFiles []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Sync a Notion database into MDX files",
		Long: `notion-sync reads every row of a Notion database, converts the page
content to markdown and writes one .mdx file per published page with a YAML
header. Files whose content did not change are left untouched.

Without a subcommand a single sync run is performed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotenv(envFiles...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, dryRun)
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment from these files (default .env)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write synthetic records without calling Notion")

	cmd.AddCommand(syncCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
