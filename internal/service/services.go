package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/notion"
	"github.com/notion-mdx-sync/internal/repository"
)

// SyncOptions adjusts a single sync pass
type SyncOptions struct {
	// DryRun forces the synthetic records even when the config does not
	DryRun bool
}

// SyncService defines the interface for one pass over the Notion database
type SyncService interface {
	Run(ctx context.Context, opts SyncOptions) (*models.SyncReport, error)
}

// RunService defines the interface for recorded sync runs
type RunService interface {
	CreateRun(ctx context.Context, req *models.RunRequest, trigger models.RunTrigger) (*models.SyncRun, error)
	RunNow(ctx context.Context, trigger models.RunTrigger, dryRun bool) (*models.SyncRun, *models.SyncReport, error)
	Execute(ctx context.Context, run *models.SyncRun) (*models.SyncReport, error)
	GetRun(ctx context.Context, id string) (*models.RunResponse, error)
	GetRunByIdempotencyKey(ctx context.Context, key string) (*models.SyncRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.SyncRun, error)
	GetRunFiles(ctx context.Context, id string, limit int) ([]models.FileResult, error)
	StartProcessor(ctx context.Context)
	StopProcessor()
}

// Services holds all service interfaces
type Services struct {
	Sync SyncService
	Run  RunService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, source notion.Source, cfg *config.Config, log zerolog.Logger, opts ...Option) *Services {
	syncSvc := NewSyncService(source, cfg, log, opts...)
	runSvc := NewRunService(repos.Run, syncSvc, cfg.Sync.Interval, log, opts...)

	return &Services{
		Sync: syncSvc,
		Run:  runSvc,
	}
}
