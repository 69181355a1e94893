package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/database"
	"github.com/notion-mdx-sync/internal/notion"
	"github.com/notion-mdx-sync/internal/repository"
	"github.com/notion-mdx-sync/internal/service"
	"github.com/notion-mdx-sync/pkg/logger"
)

// logOutput receives all log lines; stdout is reserved for the summary.
var logOutput io.Writer = os.Stderr

// app holds the wired dependencies shared by sync and serve
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	db       *database.DB
	services *service.Services
}

// loadConfig reads the environment and applies command-line overrides
// before validating.
func loadConfig(dryRun bool) (*config.Config, error) {
	cfg := config.FromEnv()
	if dryRun {
		cfg.Sync.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format, logOutput)
}

// newApp connects the ledger and builds the services. Without a token no
// Notion client is created and only dry runs succeed.
func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	var repos *repository.Repositories
	if cfg.Ledger.Enabled {
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(cfg.Ledger.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		repos = repository.New(db)
	} else {
		repos = repository.NewInMemory()
	}

	var source notion.Source
	if cfg.Notion.Token != "" {
		source = notion.NewClient(notion.ClientConfig{
			BaseURL:    cfg.Notion.BaseURL,
			Token:      cfg.Notion.Token,
			Version:    cfg.Notion.Version,
			Timeout:    cfg.Notion.Timeout,
			MaxRetries: cfg.Notion.MaxRetries,
		}, log)
	}

	a.services = service.NewServices(repos, source, cfg, log)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
