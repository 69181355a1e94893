package repository

import (
	"context"
	"errors"

	"github.com/notion-mdx-sync/internal/database"
	"github.com/notion-mdx-sync/internal/models"
)

// ErrDuplicateIdempotencyKey is returned when a run with the same key exists
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

// RunRepository defines the interface for sync run ledger operations
type RunRepository interface {
	Create(ctx context.Context, run *models.SyncRun) error
	Update(ctx context.Context, run *models.SyncRun) error
	GetByID(ctx context.Context, id string) (*models.SyncRun, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.SyncRun, error)
	List(ctx context.Context, limit int) ([]*models.SyncRun, error)
	GetPendingRuns(ctx context.Context) ([]*models.SyncRun, error)
	MarkRunAsRunning(ctx context.Context, runID string) (bool, error)
	AddFiles(ctx context.Context, runID string, files []models.FileResult) error
	GetFiles(ctx context.Context, runID string, limit int) ([]models.FileResult, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Run RunRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Run: NewRunRepo(db),
	}
}

// NewInMemory creates repositories that keep the ledger in process memory
func NewInMemory() *Repositories {
	return &Repositories{
		Run: NewMemoryRunRepo(),
	}
}
