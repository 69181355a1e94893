package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run ledger schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(db *database.DB, path string) error {
				return db.RunMigrations(path)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(db *database.DB, path string) error {
				return db.MigrateDown(path)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "goto VERSION",
		Short: "Migrate up or down to VERSION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withLedger(func(db *database.DB, path string) error {
				return db.MigrateToVersion(path, uint(version))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(db *database.DB, path string) error {
				version, dirty, err := db.MigrationVersion(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

// withLedger connects to the ledger database for schema commands. Notion
// settings are not required here.
func withLedger(fn func(db *database.DB, migrationsPath string) error) error {
	cfg := config.FromEnv()
	log := newLogger(cfg)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, cfg.Ledger.MigrationsPath)
}
